package organizationrepofake

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-tenant-guard/internal/errors"
	"github.com/jrsteele09/go-tenant-guard/organizations"
	"github.com/jrsteele09/go-tenant-guard/tenancy"
)

var _ organizations.Repo = (*FakeOrganizationRepo)(nil)

type FakeOrganizationRepo struct {
	orgs map[string]*organizations.Organization
	lock sync.RWMutex
}

func NewFakeOrganizationRepo() *FakeOrganizationRepo {
	return &FakeOrganizationRepo{
		orgs: make(map[string]*organizations.Organization),
	}
}

func (or *FakeOrganizationRepo) Create(_ context.Context, org *organizations.Organization) error {
	or.lock.Lock()
	defer or.lock.Unlock()
	if org.ID == "" {
		org.ID = uuid.New().String()
	}
	if _, exists := or.orgs[org.ID]; exists {
		return apperrors.ErrConflict
	}
	org.Features = organizations.NormalizeFeatures(org.Features)
	org.CreatedAt = time.Now()
	or.orgs[org.ID] = clone(org)
	return nil
}

func (or *FakeOrganizationRepo) Get(_ context.Context, id string) (*organizations.Organization, error) {
	or.lock.RLock()
	defer or.lock.RUnlock()
	org, ok := or.orgs[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return clone(org), nil
}

func (or *FakeOrganizationRepo) List(_ context.Context, scope tenancy.Scope) ([]*organizations.Organization, error) {
	or.lock.RLock()
	defer or.lock.RUnlock()

	list := make([]*organizations.Organization, 0)
	for _, o := range or.orgs {
		if scope.Allows(o.ID) {
			list = append(list, clone(o))
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list, nil
}

func (or *FakeOrganizationRepo) Update(_ context.Context, scope tenancy.Scope, org *organizations.Organization) error {
	or.lock.Lock()
	defer or.lock.Unlock()
	stored, ok := or.orgs[org.ID]
	if !ok || !scope.Allows(stored.ID) {
		return apperrors.ErrNotFound
	}
	stored.Name = org.Name
	stored.Plan = org.Plan
	stored.SeatLimit = org.SeatLimit
	stored.Features = organizations.NormalizeFeatures(org.Features)
	return nil
}

// Delete does not check for referencing users, so tests can also use it to remove a
// tenant underneath an issued credential.
func (or *FakeOrganizationRepo) Delete(_ context.Context, id string) error {
	or.lock.Lock()
	defer or.lock.Unlock()
	if _, ok := or.orgs[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(or.orgs, id)
	return nil
}

func clone(o *organizations.Organization) *organizations.Organization {
	c := *o
	c.Features = append([]string(nil), o.Features...)
	return &c
}
