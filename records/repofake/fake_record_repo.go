package recordrepofake

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-tenant-guard/internal/errors"
	"github.com/jrsteele09/go-tenant-guard/internal/ids"
	"github.com/jrsteele09/go-tenant-guard/records"
	"github.com/jrsteele09/go-tenant-guard/tenancy"
)

var _ records.Repo = (*FakeRecordRepo)(nil)

type FakeRecordRepo struct {
	records map[string]*records.Record
	lock    sync.RWMutex
	now     func() time.Time
}

func NewFakeRecordRepo() *FakeRecordRepo {
	return &FakeRecordRepo{
		records: make(map[string]*records.Record),
		now:     time.Now,
	}
}

func (rr *FakeRecordRepo) Create(_ context.Context, scope tenancy.Scope, rec *records.Record) error {
	orgID, err := scope.OrganizationID()
	if err != nil {
		return err
	}
	rr.lock.Lock()
	defer rr.lock.Unlock()

	rec.ID = ids.New()
	rec.OrganizationID = orgID
	rec.CreatedAt = rr.now()
	rec.UpdatedAt = rec.CreatedAt
	for i := range rec.Items {
		rec.Items[i].ID = ids.New()
		rec.Items[i].RecordID = rec.ID
		rec.Items[i].OrganizationID = orgID
	}
	rr.records[rec.ID] = clone(rec)
	return nil
}

func (rr *FakeRecordRepo) Get(_ context.Context, scope tenancy.Scope, id string) (*records.Record, error) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()
	rec, ok := rr.records[id]
	if !ok || !scope.Allows(rec.OrganizationID) {
		return nil, apperrors.ErrNotFound
	}
	return clone(rec), nil
}

func (rr *FakeRecordRepo) List(_ context.Context, scope tenancy.Scope) ([]*records.Record, error) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()

	list := make([]*records.Record, 0)
	for _, rec := range rr.records {
		if scope.Allows(rec.OrganizationID) {
			c := clone(rec)
			c.Items = nil
			list = append(list, c)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (rr *FakeRecordRepo) Update(_ context.Context, scope tenancy.Scope, rec *records.Record) error {
	rr.lock.Lock()
	defer rr.lock.Unlock()
	stored, ok := rr.records[rec.ID]
	if !ok || !scope.Allows(stored.OrganizationID) {
		return apperrors.ErrNotFound
	}
	stored.Title = rec.Title
	stored.Kind = rec.Kind
	stored.Status = rec.Status
	stored.UpdatedAt = rr.now()
	return nil
}

func clone(r *records.Record) *records.Record {
	c := *r
	c.Items = append([]records.LineItem(nil), r.Items...)
	return &c
}
