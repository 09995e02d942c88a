package fakeuserrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-tenant-guard/internal/errors"
	"github.com/jrsteele09/go-tenant-guard/tenancy"
	"github.com/jrsteele09/go-tenant-guard/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users    map[string]*users.User
	emailIds map[string]string // email to user id
	lock     sync.RWMutex
	now      func() time.Time
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:    make(map[string]*users.User),
		emailIds: make(map[string]string),
		now:      time.Now,
	}
}

func (ur *FakeUserRepo) Create(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user.OrganizationID == "" {
		return apperrors.ErrNoTenant
	}
	email := users.NormalizeEmail(user.Email)
	if _, exists := ur.emailIds[email]; exists {
		return apperrors.ErrConflict
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.Email = email
	user.CreatedAt = ur.now()
	user.UpdatedAt = user.CreatedAt

	stored := *user
	ur.users[user.ID] = &stored
	ur.emailIds[email] = user.ID
	return nil
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[users.NormalizeEmail(email)]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	u := *ur.users[id]
	return &u, nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	stored, ok := ur.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	u := *stored
	return &u, nil
}

func (ur *FakeUserRepo) List(_ context.Context, scope tenancy.Scope) ([]*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	userList := make([]*users.User, 0)
	for _, v := range ur.users {
		if !scope.Allows(v.OrganizationID) {
			continue
		}
		u := *v
		userList = append(userList, &u)
	}

	sort.Slice(userList, func(i, j int) bool {
		return userList[i].Email < userList[j].Email
	})
	return userList, nil
}

func (ur *FakeUserRepo) CountActive(_ context.Context, scope tenancy.Scope) (int, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	count := 0
	for _, v := range ur.users {
		if scope.Allows(v.OrganizationID) && v.CountsTowardSeats() {
			count++
		}
	}
	return count, nil
}

func (ur *FakeUserRepo) Update(_ context.Context, scope tenancy.Scope, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	stored, ok := ur.users[user.ID]
	if !ok || !scope.Allows(stored.OrganizationID) {
		return apperrors.ErrNotFound
	}
	stored.Name = user.Name
	stored.Role = user.Role
	stored.Active = user.Active
	stored.PasswordHash = user.PasswordHash
	stored.UpdatedAt = ur.now()
	return nil
}

func (ur *FakeUserRepo) SetOrganization(_ context.Context, userID, organizationID string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if organizationID == "" {
		return apperrors.ErrNoTenant
	}
	stored, ok := ur.users[userID]
	if !ok {
		return apperrors.ErrNotFound
	}
	stored.OrganizationID = organizationID
	stored.UpdatedAt = ur.now()
	return nil
}
