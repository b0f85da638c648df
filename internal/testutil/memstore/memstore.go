// Package memstore provides in-memory implementations of the store
// interfaces declared by the services. They follow the MongoDB stores'
// contracts (baseline roles, compare-and-swap, conditional transitions,
// errs kinds) so service tests run without a database.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	applicationstore "github.com/dalemusser/memberhub/internal/app/store/applications"
	"github.com/dalemusser/memberhub/internal/app/store/audit"
	userstore "github.com/dalemusser/memberhub/internal/app/store/users"
	"github.com/dalemusser/memberhub/internal/app/system/normalize"
	"github.com/dalemusser/memberhub/internal/domain/errs"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/google/uuid"
)

func notFound(op string) error { return fmt.Errorf("%s: %w", op, errs.ErrNotFound) }

// ---------------------------------------------------------------------------
// Identities

// Identities is an in-memory identity store.
type Identities struct {
	mu   sync.Mutex
	byID map[string]models.Identity

	// FailCreate, when set, is consulted before every Create.
	FailCreate func(models.Identity) error
	// FailSetDesignation, when set, is returned by every SetDesignation.
	FailSetDesignation error
}

func NewIdentities() *Identities {
	return &Identities{byID: map[string]models.Identity{}}
}

// Put stores u as-is, replacing any identity with the same id.
func (s *Identities) Put(u models.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.PhoneDigits = normalize.PhoneDigits(u.Phone)
	u.Email = normalize.Email(u.Email)
	s.byID[u.ID] = u
}

// Len returns the number of identities.
func (s *Identities) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *Identities) find(op string, match func(models.Identity) bool) (*models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if match(u) {
			u := u
			return &u, nil
		}
	}
	return nil, notFound(op)
}

func (s *Identities) GetByID(_ context.Context, id string) (*models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, notFound("identity by id")
	}
	return &u, nil
}

func (s *Identities) GetByMembershipID(_ context.Context, membershipID string) (*models.Identity, error) {
	want := normalize.MembershipID(membershipID)
	return s.find("identity by membership id", func(u models.Identity) bool {
		return u.MembershipID != nil && *u.MembershipID == want
	})
}

func (s *Identities) GetByEmail(_ context.Context, email string) (*models.Identity, error) {
	want := normalize.Email(email)
	return s.find("identity by email", func(u models.Identity) bool { return want != "" && u.Email == want })
}

func (s *Identities) GetByPhone(_ context.Context, phone string) (*models.Identity, error) {
	want := normalize.PhoneDigits(phone)
	return s.find("identity by phone", func(u models.Identity) bool { return want != "" && u.PhoneDigits == want })
}

func (s *Identities) Create(_ context.Context, u models.Identity) (models.Identity, error) {
	if s.FailCreate != nil {
		if err := s.FailCreate(u); err != nil {
			return models.Identity{}, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = strings.ToLower(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.PhoneDigits = normalize.PhoneDigits(u.Phone)
	if u.MembershipID != nil {
		id := normalize.MembershipID(*u.MembershipID)
		u.MembershipID = &id
	}
	if _, ok := s.byID[u.ID]; ok {
		return models.Identity{}, fmt.Errorf("create identity: %w", errs.ErrConflict)
	}
	if u.MembershipID != nil {
		for _, other := range s.byID {
			if other.MembershipID != nil && *other.MembershipID == *u.MembershipID {
				return models.Identity{}, fmt.Errorf("create identity: %w", errs.ErrConflict)
			}
		}
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	s.byID[u.ID] = u
	return u, nil
}

func (s *Identities) List(_ context.Context, f userstore.ListFilter) ([]models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	excluded := make(map[string]bool, len(f.ExcludeIDs))
	for _, id := range f.ExcludeIDs {
		excluded[id] = true
	}
	var out []models.Identity
	for _, u := range s.byID {
		if f.State != "" && u.State != f.State {
			continue
		}
		if f.District != "" && u.District != f.District {
			continue
		}
		if excluded[u.ID] {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FullNameCI != out[j].FullNameCI {
			return out[i].FullNameCI < out[j].FullNameCI
		}
		return out[i].ID < out[j].ID
	})
	return page(out, f.Offset, f.Limit), nil
}

func (s *Identities) update(op, id string, fn func(*models.Identity)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return notFound(op)
	}
	fn(&u)
	u.UpdatedAt = time.Now().UTC()
	s.byID[id] = u
	return nil
}

func (s *Identities) SetCardIssuedAt(_ context.Context, id string, at *time.Time) error {
	return s.update("set card issued", id, func(u *models.Identity) { u.IDCardIssuedAt = at })
}

func (s *Identities) SetConsent(_ context.Context, id string, field models.ConsentField, value bool) error {
	if !field.Valid() {
		return errs.NewValidation("field", "unknown consent field")
	}
	return s.update("set consent", id, func(u *models.Identity) {
		if field == models.ConsentEmail {
			u.AllowEmailSharing = value
		} else {
			u.AllowMobileSharing = value
		}
	})
}

func (s *Identities) SetState(_ context.Context, id, state string) error {
	return s.update("set state", id, func(u *models.Identity) {
		u.State = state
		u.District = ""
	})
}

func (s *Identities) SetDesignation(_ context.Context, id, designation string) error {
	if s.FailSetDesignation != nil {
		return s.FailSetDesignation
	}
	return s.update("set designation", id, func(u *models.Identity) { u.Designation = designation })
}

// SetEmail changes the stored email. Used by tests.
func (s *Identities) SetEmail(id, email string) error {
	return s.update("set email", id, func(u *models.Identity) { u.Email = normalize.Email(email) })
}

// ---------------------------------------------------------------------------
// Roles

// Roles is an in-memory role store with one row per user.
type Roles struct {
	mu   sync.Mutex
	rows map[string]models.RoleRecord

	// BeforeSwap, when set, runs before each CompareAndSwap with the lock
	// released, so tests can interleave a concurrent writer.
	BeforeSwap func(userID string)
}

func NewRoles() *Roles {
	return &Roles{rows: map[string]models.RoleRecord{}}
}

// Put stores rec as-is.
func (s *Roles) Put(rec models.RoleRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[rec.UserID] = rec
}

// Row returns the stored row, if any.
func (s *Roles) Row(userID string) (models.RoleRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.rows[userID]
	return rec, ok
}

func (s *Roles) Get(_ context.Context, userID string) (models.RoleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.rows[userID]; ok {
		return rec, nil
	}
	return models.BaselineRole(userID), nil
}

func (s *Roles) GetMany(ctx context.Context, userIDs []string) (map[string]models.RoleRecord, error) {
	out := make(map[string]models.RoleRecord, len(userIDs))
	for _, id := range userIDs {
		rec, _ := s.Get(ctx, id)
		out[id] = rec
	}
	return out, nil
}

func (s *Roles) ListByRole(_ context.Context, role string) ([]models.RoleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.RoleRecord
	for _, rec := range s.rows {
		if rec.Role == role {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *Roles) CompareAndSwap(_ context.Context, rec models.RoleRecord) (models.RoleRecord, error) {
	if s.BeforeSwap != nil {
		s.BeforeSwap(rec.UserID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var current int64
	if row, ok := s.rows[rec.UserID]; ok {
		current = row.Version
	}
	if current != rec.Version {
		return models.RoleRecord{}, fmt.Errorf("swap role: %w", errs.ErrConflict)
	}
	rec.Version++
	rec.UpdatedAt = time.Now().UTC()
	s.rows[rec.UserID] = rec
	return rec, nil
}

// ---------------------------------------------------------------------------
// Applications

// Applications is an in-memory application store.
type Applications struct {
	mu   sync.Mutex
	byID map[string]models.Application
	seq  int
}

func NewApplications() *Applications {
	return &Applications{byID: map[string]models.Application{}}
}

// Put stores a as-is, normalizing contact fields.
func (s *Applications) Put(a models.Application) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.Email = normalize.Email(a.Email)
	a.PhoneDigits = normalize.PhoneDigits(a.Phone)
	s.byID[a.ID] = a
}

func (s *Applications) Create(_ context.Context, a models.Application) (models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if _, ok := s.byID[a.ID]; ok {
		return models.Application{}, fmt.Errorf("create application: %w", errs.ErrConflict)
	}
	s.seq++
	a.FullName = normalize.Name(a.FullName)
	a.Email = normalize.Email(a.Email)
	a.PhoneDigits = normalize.PhoneDigits(a.Phone)
	a.Status = models.ApplicationPending
	if a.AppliedAt.IsZero() {
		// Strictly increasing so "latest" is deterministic.
		a.AppliedAt = time.Now().UTC().Add(time.Duration(s.seq) * time.Microsecond)
	}
	s.byID[a.ID] = a
	return a, nil
}

func (s *Applications) Get(_ context.Context, id string) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, notFound("get application")
	}
	return &a, nil
}

func (s *Applications) latest(op string, match func(models.Application) bool) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *models.Application
	for _, a := range s.byID {
		if !match(a) {
			continue
		}
		if best == nil || a.AppliedAt.After(best.AppliedAt) {
			a := a
			best = &a
		}
	}
	if best == nil {
		return nil, notFound(op)
	}
	return best, nil
}

func (s *Applications) LatestByEmail(_ context.Context, email string) (*models.Application, error) {
	want := normalize.Email(email)
	return s.latest("application by email", func(a models.Application) bool { return want != "" && a.Email == want })
}

func (s *Applications) LatestByPhone(_ context.Context, phone string) (*models.Application, error) {
	want := normalize.PhoneDigits(phone)
	return s.latest("application by phone", func(a models.Application) bool { return want != "" && a.PhoneDigits == want })
}

func (s *Applications) Decide(_ context.Context, id string, t applicationstore.Transition) error {
	if t.Status != models.ApplicationApproved && t.Status != models.ApplicationRejected {
		return errs.NewValidation("status", "must be approved or rejected")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return notFound("decide application")
	}
	if a.Status != models.ApplicationPending {
		return fmt.Errorf("decide application: %w", errs.ErrAlreadyProcessed)
	}
	a.Status = t.Status
	a.ReviewedBy = t.ReviewedBy
	at := t.ReviewedAt
	a.ReviewedAt = &at
	if t.RejectionReason != "" {
		a.RejectionReason = t.RejectionReason
	}
	s.byID[id] = a
	return nil
}

func (s *Applications) SetMembershipID(_ context.Context, id, membershipID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.byID[id]; ok && a.Status == models.ApplicationApproved {
		a.MembershipID = membershipID
		s.byID[id] = a
	}
	return nil
}

func (s *Applications) Reopen(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.byID[id]; ok && a.Status == models.ApplicationApproved {
		a.Status = models.ApplicationPending
		a.ReviewedBy = ""
		a.ReviewedAt = nil
		a.MembershipID = ""
		s.byID[id] = a
	}
	return nil
}

func (s *Applications) List(_ context.Context, f applicationstore.ListFilter) ([]models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Application
	for _, a := range s.byID {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.State != "" && a.State != f.State {
			continue
		}
		if f.District != "" && a.District != f.District {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppliedAt.After(out[j].AppliedAt) })
	return page(out, f.Offset, f.Limit), nil
}

// ---------------------------------------------------------------------------
// Counters

// Counters is an in-memory sequence source.
type Counters struct {
	mu   sync.Mutex
	vals map[string]int64
}

func NewCounters() *Counters {
	return &Counters{vals: map[string]int64{}}
}

func (s *Counters) Next(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals[name]++
	return s.vals[name], nil
}

// ---------------------------------------------------------------------------
// Event forms

// EventForms is an in-memory event form store.
type EventForms struct {
	mu    sync.Mutex
	forms map[string]models.EventForm
}

func NewEventForms() *EventForms {
	return &EventForms{forms: map[string]models.EventForm{}}
}

func (s *EventForms) Get(_ context.Context, managerID string) (*models.EventForm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.forms[managerID]
	if !ok {
		return nil, notFound("get event form")
	}
	f.Fields = append([]models.FormField(nil), f.Fields...)
	return &f, nil
}

func (s *EventForms) Save(_ context.Context, f models.EventForm) (models.EventForm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if prev, ok := s.forms[f.ManagerID]; ok {
		f.CreatedAt = prev.CreatedAt
	} else {
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	f.Fields = append([]models.FormField(nil), f.Fields...)
	s.forms[f.ManagerID] = f
	return f, nil
}

func (s *EventForms) SetActive(_ context.Context, managerID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.forms[managerID]; ok {
		f.IsActive = active
		f.UpdatedAt = time.Now().UTC()
		s.forms[managerID] = f
	}
	return nil
}

// ---------------------------------------------------------------------------
// Delegates

// Delegates is an in-memory delegate store.
type Delegates struct {
	mu   sync.Mutex
	byID map[string]models.Delegate
}

func NewDelegates() *Delegates {
	return &Delegates{byID: map[string]models.Delegate{}}
}

// Len returns the number of delegates.
func (s *Delegates) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *Delegates) Create(_ context.Context, d models.Delegate) (models.Delegate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[d.ID]; ok {
		return models.Delegate{}, fmt.Errorf("create delegate: %w", errs.ErrConflict)
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	if d.CustomData == nil {
		d.CustomData = map[string]string{}
	}
	s.byID[d.ID] = d
	return d, nil
}

func (s *Delegates) Get(_ context.Context, id string) (*models.Delegate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.byID[id]
	if !ok {
		return nil, notFound("get delegate")
	}
	return &d, nil
}

func (s *Delegates) ListByManager(_ context.Context, managerID string, limit int64) ([]models.Delegate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Delegate
	for _, d := range s.byID {
		if d.ManagerID == managerID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, 0, limit), nil
}

// ---------------------------------------------------------------------------
// Audit

// AuditSink collects audit events in memory.
type AuditSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func NewAuditSink() *AuditSink { return &AuditSink{} }

func (s *AuditSink) Log(_ context.Context, e audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	s.events = append(s.events, e)
	return nil
}

// Events returns a copy of the recorded events, oldest first.
func (s *AuditSink) Events() []audit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.Event(nil), s.events...)
}

// OfType returns the recorded events with the given type.
func (s *AuditSink) OfType(eventType string) []audit.Event {
	var out []audit.Event
	for _, e := range s.Events() {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

// Query returns events matching f, newest first.
func (s *AuditSink) Query(_ context.Context, f audit.QueryFilter) ([]audit.Event, error) {
	return page(s.matching(f), f.Offset, f.Limit), nil
}

// Count returns how many events match f, ignoring paging.
func (s *AuditSink) Count(_ context.Context, f audit.QueryFilter) (int64, error) {
	return int64(len(s.matching(f))), nil
}

func (s *AuditSink) matching(f audit.QueryFilter) []audit.Event {
	all := s.Events()
	out := make([]audit.Event, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		e := all[i]
		if (f.Category != "" && e.Category != f.Category) ||
			(f.EventType != "" && e.EventType != f.EventType) ||
			(f.ActorID != "" && e.ActorID != f.ActorID) ||
			(f.TargetID != "" && e.TargetID != f.TargetID) ||
			(f.StartTime != nil && e.Timestamp.Before(*f.StartTime)) ||
			(f.EndTime != nil && e.Timestamp.After(*f.EndTime)) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func page[T any](in []T, offset, limit int64) []T {
	if offset > 0 {
		if offset >= int64(len(in)) {
			return nil
		}
		in = in[offset:]
	}
	if limit > 0 && int64(len(in)) > limit {
		in = in[:limit]
	}
	return in
}
