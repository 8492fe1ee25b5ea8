package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ayachi01/FixItWeb/internal/domain"
	"github.com/ayachi01/FixItWeb/internal/events"
	"github.com/ayachi01/FixItWeb/internal/repository"
)

// fakeTx satisfies repository.TxRunner without a database. The fakes ignore
// the tx handle, so passing nil through is safe.
type fakeTx struct{}

func (fakeTx) InTx(_ context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type fakeUserRepo struct {
	accounts map[string]*domain.UserAccount
	profiles map[string]*domain.UserProfile
	students map[string]*domain.StudentProfile
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		accounts: map[string]*domain.UserAccount{},
		profiles: map[string]*domain.UserProfile{},
		students: map[string]*domain.StudentProfile{},
	}
}

func (f *fakeUserRepo) WithTx(pgx.Tx) repository.UserRepository { return f }

func (f *fakeUserRepo) CreateAccount(_ context.Context, a *domain.UserAccount) error {
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	copied := *a
	f.accounts[a.ID] = &copied
	return nil
}

func (f *fakeUserRepo) UpdateAccount(_ context.Context, a *domain.UserAccount) error {
	if _, ok := f.accounts[a.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *a
	f.accounts[a.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetAccountByID(_ context.Context, id string) (*domain.UserAccount, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *a
	return &copied, nil
}

func (f *fakeUserRepo) GetAccountByEmail(_ context.Context, email string) (*domain.UserAccount, error) {
	for _, a := range f.accounts {
		if strings.EqualFold(a.Email, email) {
			copied := *a
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) LockAccount(_ context.Context, id string) error {
	if _, ok := f.accounts[id]; !ok {
		return pgx.ErrNoRows
	}
	return nil
}

func (f *fakeUserRepo) CreateProfile(_ context.Context, p *domain.UserProfile) error {
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	copied := *p
	f.profiles[p.ID] = &copied
	return nil
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, p *domain.UserProfile) error {
	if _, ok := f.profiles[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *p
	f.profiles[p.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetProfileByAccount(_ context.Context, accountID string) (*domain.UserProfile, error) {
	for _, p := range f.profiles {
		if p.AccountID == accountID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) ListProfilesByRoles(_ context.Context, roleNames []string) ([]domain.UserProfile, error) {
	var out []domain.UserProfile
	for _, p := range f.profiles {
		for _, name := range roleNames {
			if p.Role() == name {
				out = append(out, *p)
			}
		}
	}
	return out, nil
}

func (f *fakeUserRepo) CreateStudentProfile(_ context.Context, s *domain.StudentProfile) error {
	s.ID = uuid.NewString()
	copied := *s
	f.students[s.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetStudentProfile(_ context.Context, profileID string) (*domain.StudentProfile, error) {
	for _, s := range f.students {
		if s.ProfileID == profileID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeCodeRepo struct {
	resetCodes        map[string]*domain.PasswordResetCode
	verificationCodes map[string]*domain.VerificationCode
}

func newFakeCodeRepo() *fakeCodeRepo {
	return &fakeCodeRepo{
		resetCodes:        map[string]*domain.PasswordResetCode{},
		verificationCodes: map[string]*domain.VerificationCode{},
	}
}

func (f *fakeCodeRepo) WithTx(pgx.Tx) repository.CodeRepository { return f }

func (f *fakeCodeRepo) InvalidateResetCodes(_ context.Context, accountID string) error {
	for _, c := range f.resetCodes {
		if c.AccountID == accountID {
			c.IsUsed = true
		}
	}
	return nil
}

func (f *fakeCodeRepo) CreateResetCode(_ context.Context, c *domain.PasswordResetCode) error {
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	copied := *c
	f.resetCodes[c.ID] = &copied
	return nil
}

func (f *fakeCodeRepo) GetActiveResetCode(_ context.Context, accountID string) (*domain.PasswordResetCode, error) {
	var latest *domain.PasswordResetCode
	for _, c := range f.resetCodes {
		if c.AccountID == accountID && !c.IsUsed {
			if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
				latest = c
			}
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	copied := *latest
	return &copied, nil
}

func (f *fakeCodeRepo) MarkResetCodeUsed(_ context.Context, id string) error {
	c, ok := f.resetCodes[id]
	if !ok || c.IsUsed {
		return pgx.ErrNoRows
	}
	c.IsUsed = true
	return nil
}

func (f *fakeCodeRepo) DeleteStaleResetCodes(_ context.Context, olderThan time.Time) (int64, error) {
	var n int64
	for id, c := range f.resetCodes {
		if c.IsUsed || c.CreatedAt.Before(olderThan) {
			delete(f.resetCodes, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeCodeRepo) InvalidateVerificationCodes(_ context.Context, accountID string) error {
	for _, c := range f.verificationCodes {
		if c.AccountID == accountID {
			c.IsUsed = true
		}
	}
	return nil
}

func (f *fakeCodeRepo) CreateVerificationCode(_ context.Context, c *domain.VerificationCode) error {
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	copied := *c
	f.verificationCodes[c.ID] = &copied
	return nil
}

func (f *fakeCodeRepo) GetActiveVerificationCode(_ context.Context, accountID string) (*domain.VerificationCode, error) {
	var latest *domain.VerificationCode
	for _, c := range f.verificationCodes {
		if c.AccountID == accountID && !c.IsUsed {
			if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
				latest = c
			}
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	copied := *latest
	return &copied, nil
}

func (f *fakeCodeRepo) MarkVerificationCodeUsed(_ context.Context, id string) error {
	c, ok := f.verificationCodes[id]
	if !ok || c.IsUsed {
		return pgx.ErrNoRows
	}
	c.IsUsed = true
	return nil
}

func (f *fakeCodeRepo) DeleteStaleVerificationCodes(_ context.Context, olderThan time.Time) (int64, error) {
	var n int64
	for id, c := range f.verificationCodes {
		if c.IsUsed || c.CreatedAt.Before(olderThan) {
			delete(f.verificationCodes, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeCodeRepo) activeVerificationCount(accountID string) int {
	n := 0
	for _, c := range f.verificationCodes {
		if c.AccountID == accountID && !c.IsUsed {
			n++
		}
	}
	return n
}

func (f *fakeCodeRepo) activeResetCount(accountID string) int {
	n := 0
	for _, c := range f.resetCodes {
		if c.AccountID == accountID && !c.IsUsed {
			n++
		}
	}
	return n
}

type fakeInviteRepo struct {
	invites map[string]*domain.Invite
}

func newFakeInviteRepo() *fakeInviteRepo {
	return &fakeInviteRepo{invites: map[string]*domain.Invite{}}
}

func (f *fakeInviteRepo) WithTx(pgx.Tx) repository.InviteRepository { return f }

func (f *fakeInviteRepo) Create(_ context.Context, inv *domain.Invite) error {
	inv.ID = uuid.NewString()
	inv.CreatedAt = time.Now()
	copied := *inv
	f.invites[inv.ID] = &copied
	return nil
}

func (f *fakeInviteRepo) GetByToken(_ context.Context, token string) (*domain.Invite, error) {
	for _, inv := range f.invites {
		if inv.Token == token {
			copied := *inv
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeInviteRepo) GetByTokenForUpdate(ctx context.Context, token string) (*domain.Invite, error) {
	return f.GetByToken(ctx, token)
}

func (f *fakeInviteRepo) GetActiveByEmail(_ context.Context, email string) (*domain.Invite, error) {
	var latest *domain.Invite
	for _, inv := range f.invites {
		if strings.EqualFold(inv.Email, email) && !inv.IsUsed {
			if latest == nil || inv.CreatedAt.After(latest.CreatedAt) {
				latest = inv
			}
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	copied := *latest
	return &copied, nil
}

func (f *fakeInviteRepo) MarkUsed(_ context.Context, id string) error {
	inv, ok := f.invites[id]
	if !ok || inv.IsUsed {
		return pgx.ErrNoRows
	}
	inv.IsUsed = true
	return nil
}

func (f *fakeInviteRepo) MarkApproved(_ context.Context, id, approverID string) error {
	inv, ok := f.invites[id]
	if !ok || inv.IsUsed {
		return pgx.ErrNoRows
	}
	now := time.Now()
	inv.IsApproved = true
	inv.ApprovedBy = &approverID
	inv.ApprovedAt = &now
	return nil
}

func (f *fakeInviteRepo) Delete(_ context.Context, id string) error {
	delete(f.invites, id)
	return nil
}

func (f *fakeInviteRepo) ListPendingApproval(_ context.Context, _, _ int) ([]domain.Invite, error) {
	var out []domain.Invite
	for _, inv := range f.invites {
		if inv.RequiresAdminApproval && !inv.IsApproved && !inv.IsUsed {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (f *fakeInviteRepo) List(_ context.Context, _, _ int) ([]domain.Invite, error) {
	var out []domain.Invite
	for _, inv := range f.invites {
		out = append(out, *inv)
	}
	return out, nil
}

type fakeTicketRepo struct {
	tickets     map[string]*domain.Ticket
	images      map[string][]domain.TicketImage
	assignments map[string]*domain.TicketAssignment
	resolutions map[string][]domain.TicketResolution
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		tickets:     map[string]*domain.Ticket{},
		images:      map[string][]domain.TicketImage{},
		assignments: map[string]*domain.TicketAssignment{},
		resolutions: map[string][]domain.TicketResolution{},
	}
}

func (f *fakeTicketRepo) WithTx(pgx.Tx) repository.TicketRepository { return f }

func (f *fakeTicketRepo) Create(_ context.Context, t *domain.Ticket) error {
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	copied := *t
	f.tickets[t.ID] = &copied
	return nil
}

func (f *fakeTicketRepo) Update(_ context.Context, t *domain.Ticket) error {
	if _, ok := f.tickets[t.ID]; !ok {
		return pgx.ErrNoRows
	}
	t.UpdatedAt = time.Now()
	copied := *t
	f.tickets[t.ID] = &copied
	return nil
}

func (f *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	t, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTicketRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeTicketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, t := range f.tickets {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Category != "" && t.Category != filter.Category {
			continue
		}
		if filter.ReporterID != "" && (t.ReporterID == nil || *t.ReporterID != filter.ReporterID) {
			continue
		}
		if filter.AssigneeID != "" {
			assigned := false
			for _, a := range f.assignments {
				if a.TicketID == t.ID && a.AssigneeID == filter.AssigneeID {
					assigned = true
				}
			}
			if !assigned {
				continue
			}
		}
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeTicketRepo) ListEscalatable(_ context.Context) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, t := range f.tickets {
		if !t.Terminal() {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTicketRepo) AddImage(_ context.Context, img *domain.TicketImage) error {
	img.ID = uuid.NewString()
	img.CreatedAt = time.Now()
	f.images[img.TicketID] = append(f.images[img.TicketID], *img)
	return nil
}

func (f *fakeTicketRepo) ListImages(_ context.Context, ticketID string) ([]domain.TicketImage, error) {
	return f.images[ticketID], nil
}

func (f *fakeTicketRepo) CreateAssignment(_ context.Context, a *domain.TicketAssignment) error {
	a.ID = uuid.NewString()
	a.AssignedAt = time.Now()
	copied := *a
	f.assignments[a.ID] = &copied
	return nil
}

func (f *fakeTicketRepo) GetAssignment(_ context.Context, ticketID, assigneeID string) (*domain.TicketAssignment, error) {
	for _, a := range f.assignments {
		if a.TicketID == ticketID && a.AssigneeID == assigneeID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTicketRepo) MarkAssignmentAccepted(_ context.Context, id string) error {
	a, ok := f.assignments[id]
	if !ok || a.Accepted {
		return pgx.ErrNoRows
	}
	now := time.Now()
	a.Accepted = true
	a.AcceptedAt = &now
	return nil
}

func (f *fakeTicketRepo) ListAssignments(_ context.Context, ticketID string) ([]domain.TicketAssignment, error) {
	var out []domain.TicketAssignment
	for _, a := range f.assignments {
		if a.TicketID == ticketID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeTicketRepo) CountAssignments(_ context.Context, ticketID string) (int, error) {
	n := 0
	for _, a := range f.assignments {
		if a.TicketID == ticketID {
			n++
		}
	}
	return n, nil
}

func (f *fakeTicketRepo) CountActiveAssignments(_ context.Context, assigneeID string) (int, error) {
	workload := map[domain.TicketStatus]bool{}
	for _, st := range domain.WorkloadStatuses() {
		workload[st] = true
	}
	n := 0
	for _, a := range f.assignments {
		if a.AssigneeID != assigneeID {
			continue
		}
		if t, ok := f.tickets[a.TicketID]; ok && workload[t.Status] {
			n++
		}
	}
	return n, nil
}

func (f *fakeTicketRepo) CreateResolution(_ context.Context, res *domain.TicketResolution) error {
	res.ID = uuid.NewString()
	res.CreatedAt = time.Now()
	f.resolutions[res.TicketID] = append(f.resolutions[res.TicketID], *res)
	return nil
}

func (f *fakeTicketRepo) ListResolutions(_ context.Context, ticketID string) ([]domain.TicketResolution, error) {
	return f.resolutions[ticketID], nil
}

type fakeLocationRepo struct {
	locations map[string]*domain.Location
}

func newFakeLocationRepo() *fakeLocationRepo {
	return &fakeLocationRepo{locations: map[string]*domain.Location{}}
}

func (f *fakeLocationRepo) WithTx(pgx.Tx) repository.LocationRepository { return f }

func (f *fakeLocationRepo) Create(_ context.Context, loc *domain.Location) error {
	loc.ID = uuid.NewString()
	loc.CreatedAt = time.Now()
	copied := *loc
	f.locations[loc.ID] = &copied
	return nil
}

func (f *fakeLocationRepo) GetByID(_ context.Context, id string) (*domain.Location, error) {
	loc, ok := f.locations[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *loc
	return &copied, nil
}

func (f *fakeLocationRepo) List(_ context.Context) ([]domain.Location, error) {
	var out []domain.Location
	for _, loc := range f.locations {
		out = append(out, *loc)
	}
	return out, nil
}

type fakeAuditRepo struct {
	entries []domain.AuditEntry
}

func (f *fakeAuditRepo) WithTx(pgx.Tx) repository.AuditRepository { return f }

func (f *fakeAuditRepo) Insert(_ context.Context, entry *domain.AuditEntry) error {
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) List(_ context.Context, filter repository.AuditFilter) ([]domain.AuditEntry, error) {
	var out []domain.AuditEntry
	for _, e := range f.entries {
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeAuditRepo) DeleteOlderThan(_ context.Context, cutoff time.Time, excluding []domain.AuditAction) (int64, error) {
	excluded := map[domain.AuditAction]bool{}
	for _, a := range excluding {
		excluded[a] = true
	}
	var kept []domain.AuditEntry
	var n int64
	for _, e := range f.entries {
		if !excluded[e.Action] && e.CreatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	f.entries = kept
	return n, nil
}

func (f *fakeAuditRepo) DeleteOlderThanForActions(_ context.Context, cutoff time.Time, actions []domain.AuditAction) (int64, error) {
	included := map[domain.AuditAction]bool{}
	for _, a := range actions {
		included[a] = true
	}
	var kept []domain.AuditEntry
	var n int64
	for _, e := range f.entries {
		if included[e.Action] && e.CreatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	f.entries = kept
	return n, nil
}

func (f *fakeAuditRepo) actions() []domain.AuditAction {
	out := make([]domain.AuditAction, len(f.entries))
	for i, e := range f.entries {
		out[i] = e.Action
	}
	return out
}

// recordingDispatcher captures published events in order.
type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	out := make([]events.EventType, len(d.published))
	for i, e := range d.published {
		out[i] = e.Type
	}
	return out
}
