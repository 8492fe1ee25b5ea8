package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ayachi01/FixItWeb/internal/config"
	"github.com/ayachi01/FixItWeb/internal/domain"
	"github.com/ayachi01/FixItWeb/internal/events"
	"github.com/ayachi01/FixItWeb/internal/repository"
	"github.com/ayachi01/FixItWeb/internal/roles"
	apperrors "github.com/ayachi01/FixItWeb/pkg/util"
)

// TicketService coordinates the facility ticket lifecycle from report
// through resolution, closing, and escalation.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	locations  repository.LocationRepository
	registry   *roles.Registry
	dispatcher events.Dispatcher
	audit      *AuditService
	tx         repository.TxRunner
	thresholds domain.EscalationThresholds
}

// TicketDependencies bundles repositories for the ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	UserRepo     repository.UserRepository
	LocationRepo repository.LocationRepository
	Registry     *roles.Registry
	Dispatcher   events.Dispatcher
	Audit        *AuditService
	Tx           repository.TxRunner
}

// NewTicketService constructs the service.
func NewTicketService(cfg config.Config, deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		locations:  deps.LocationRepo,
		registry:   deps.Registry,
		dispatcher: deps.Dispatcher,
		audit:      deps.Audit,
		tx:         deps.Tx,
		thresholds: domain.EscalationThresholds{
			UrgentSecondary:   time.Duration(cfg.Escalation.UrgentSecondaryHours) * time.Hour,
			StandardSecondary: time.Duration(cfg.Escalation.StandardSecondaryHours) * time.Hour,
			Admin:             time.Duration(cfg.Escalation.AdminHours) * time.Hour,
		},
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	LocationID  string
	Title       string
	Description string
	Category    domain.Category
	Urgency     domain.Urgency
	ImageURLs   []string
}

// CreateTicket reports a new facility issue. Every report carries between
// one and three evidence images.
func (s *TicketService) CreateTicket(ctx context.Context, actor Actor, input TicketCreateInput) (*domain.Ticket, error) {
	if !actor.Bundle.CanReport {
		return nil, apperrors.NewForbidden("reporting permission required")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("description is required", nil)
	}
	if !domain.ValidCategory(input.Category) {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": input.Category})
	}
	if len(input.ImageURLs) < domain.MinTicketImages || len(input.ImageURLs) > domain.MaxTicketImages {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("between %d and %d images are required", domain.MinTicketImages, domain.MaxTicketImages),
			map[string]any{"count": len(input.ImageURLs)})
	}
	if input.Urgency == "" {
		input.Urgency = domain.UrgencyStandard
	}
	if input.Urgency != domain.UrgencyStandard && input.Urgency != domain.UrgencyUrgent {
		return nil, apperrors.NewValidationError("unknown urgency", map[string]any{"urgency": input.Urgency})
	}

	if _, err := s.locations.GetByID(ctx, input.LocationID); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("location", nil)
		}
		return nil, err
	}

	ticket := &domain.Ticket{
		ReporterID:      actor.ID(),
		LocationID:      input.LocationID,
		Title:           strings.TrimSpace(input.Title),
		Description:     strings.TrimSpace(input.Description),
		Category:        input.Category,
		Urgency:         input.Urgency,
		Status:          domain.TicketStatusCreated,
		EscalationLevel: domain.EscalationNone,
	}

	err := s.tx.InTx(ctx, func(tx pgx.Tx) error {
		tickets := s.tickets.WithTx(tx)
		if err := tickets.Create(ctx, ticket); err != nil {
			return err
		}
		for _, url := range input.ImageURLs {
			img := &domain.TicketImage{
				TicketID:   ticket.ID,
				ImageURL:   url,
				UploadedBy: actor.ID(),
			}
			if err := tickets.AddImage(ctx, img); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, domain.AuditEntry{
		Action:       domain.AuditTicketCreated,
		PerformedBy:  actor.ID(),
		TargetTicket: &ticket.ID,
		Details:      fmt.Sprintf("%s at location %s", ticket.Category, ticket.LocationID),
	})
	publishEvent(ctx, s.dispatcher, events.EventTicketCreated, actor.ID(), events.TicketPayload{
		TicketID:   ticket.ID,
		ReporterID: ticket.ReporterID,
		Category:   ticket.Category,
		Status:     ticket.Status,
	})
	return ticket, nil
}

// AssignTicket hands a ticket to a fixer. The assignee's role must be able
// to fix the ticket's category, they must have capacity, and the same fixer
// is never assigned twice. Capacity is checked under a row lock on the
// assignee's account so concurrent assignments cannot oversubscribe.
func (s *TicketService) AssignTicket(ctx context.Context, actor Actor, ticketID, assigneeID string) (*domain.Ticket, error) {
	if !actor.Bundle.CanAssign {
		return nil, apperrors.NewForbidden("assignment permission required")
	}

	var ticket *domain.Ticket
	err := s.tx.InTx(ctx, func(tx pgx.Tx) error {
		tickets := s.tickets.WithTx(tx)
		users := s.users.WithTx(tx)

		var err error
		ticket, err = tickets.GetByIDForUpdate(ctx, ticketID)
		if err != nil {
			if err == pgx.ErrNoRows {
				return apperrors.NewNotFound("ticket", nil)
			}
			return err
		}
		if ticket.Status != domain.TicketStatusAssigned &&
			!domain.ValidTransition(ticket.Status, domain.TicketStatusAssigned) {
			return apperrors.NewInvalidState("ticket cannot be assigned in its current status",
				map[string]any{"status": ticket.Status})
		}

		profile, err := users.GetProfileByAccount(ctx, assigneeID)
		if err != nil {
			if err == pgx.ErrNoRows {
				return apperrors.NewNotFound("assignee", nil)
			}
			return err
		}
		bundle := s.registry.PermissionsForProfile(profile)
		if !bundle.CanFix || !bundle.Allows(ticket.Category) {
			return apperrors.NewIneligibleAssignee("assignee role cannot fix this category",
				map[string]any{"role": profile.Role(), "category": ticket.Category})
		}

		if _, err := tickets.GetAssignment(ctx, ticketID, assigneeID); err == nil {
			return apperrors.NewDuplicateActive("fixer is already assigned to this ticket", nil)
		} else if err != pgx.ErrNoRows {
			return err
		}

		if err := users.LockAccount(ctx, assigneeID); err != nil {
			return err
		}
		active, err := tickets.CountActiveAssignments(ctx, assigneeID)
		if err != nil {
			return err
		}
		if active >= domain.MaxActiveAssignments {
			return apperrors.NewIneligibleAssignee("fixer is at capacity",
				map[string]any{"active": active, "max": domain.MaxActiveAssignments})
		}

		assignment := &domain.TicketAssignment{TicketID: ticketID, AssigneeID: assigneeID}
		if err := tickets.CreateAssignment(ctx, assignment); err != nil {
			return err
		}

		if ticket.Status != domain.TicketStatusAssigned {
			ticket.Status = domain.TicketStatusAssigned
			if err := tickets.Update(ctx, ticket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, domain.AuditEntry{
		Action:       domain.AuditTicketAssigned,
		PerformedBy:  actor.ID(),
		TargetTicket: &ticket.ID,
		TargetUser:   &assigneeID,
	})
	publishEvent(ctx, s.dispatcher, events.EventTicketAssigned, actor.ID(), events.TicketPayload{
		TicketID:   ticket.ID,
		AssigneeID: &assigneeID,
		Category:   ticket.Category,
		Status:     ticket.Status,
	})
	return ticket, nil
}

// AcceptAssignment marks the fixer's assignment accepted and moves the
// ticket into progress.
func (s *TicketService) AcceptAssignment(ctx context.Context, actor Actor, ticketID string) (*domain.Ticket, error) {
	var ticket *domain.Ticket
	err := s.tx.InTx(ctx, func(tx pgx.Tx) error {
		tickets := s.tickets.WithTx(tx)

		var err error
		ticket, err = tickets.GetByIDForUpdate(ctx, ticketID)
		if err != nil {
			if err == pgx.ErrNoRows {
				return apperrors.NewNotFound("ticket", nil)
			}
			return err
		}

		assignment, err := tickets.GetAssignment(ctx, ticketID, actor.AccountID)
		if err != nil {
			if err == pgx.ErrNoRows {
				return apperrors.NewForbidden("not assigned to this ticket")
			}
			return err
		}
		if assignment.Accepted {
			return apperrors.NewConflict("assignment already accepted", nil)
		}
		if err := tickets.MarkAssignmentAccepted(ctx, assignment.ID); err != nil {
			return err
		}

		if ticket.Status != domain.TicketStatusInProgress {
			if !domain.ValidTransition(ticket.Status, domain.TicketStatusInProgress) {
				return apperrors.NewInvalidState("ticket cannot move into progress",
					map[string]any{"status": ticket.Status})
			}
			ticket.Status = domain.TicketStatusInProgress
			if err := tickets.Update(ctx, ticket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, domain.AuditEntry{
		Action:       domain.AuditTicketAccepted,
		PerformedBy:  actor.ID(),
		TargetTicket: &ticket.ID,
	})
	publishEvent(ctx, s.dispatcher, events.EventTicketAccepted, actor.ID(), events.TicketPayload{
		TicketID: ticket.ID,
		Status:   ticket.Status,
	})
	return ticket, nil
}

// ResolveTicket records the fix. Only fixer roles may resolve, the resolver
// must be assigned to the ticket, and proof of the completed work is
// mandatory.
func (s *TicketService) ResolveTicket(ctx context.Context, actor Actor, ticketID, note string, proofImageURL *string) (*domain.Ticket, error) {
	if !actor.Bundle.CanFix {
		return nil, apperrors.NewForbidden("fixing permission required")
	}
	if actor.Bundle.RequiresProof() && (proofImageURL == nil || *proofImageURL == "") {
		return nil, apperrors.NewProofRequired("proof image required to resolve")
	}

	var ticket *domain.Ticket
	err := s.tx.InTx(ctx, func(tx pgx.Tx) error {
		tickets := s.tickets.WithTx(tx)

		var err error
		ticket, err = tickets.GetByIDForUpdate(ctx, ticketID)
		if err != nil {
			if err == pgx.ErrNoRows {
				return apperrors.NewNotFound("ticket", nil)
			}
			return err
		}
		if !domain.ValidTransition(ticket.Status, domain.TicketStatusResolved) {
			return apperrors.NewInvalidState("ticket cannot be resolved in its current status",
				map[string]any{"status": ticket.Status})
		}

		if _, err := tickets.GetAssignment(ctx, ticketID, actor.AccountID); err != nil {
			if err == pgx.ErrNoRows {
				return apperrors.NewForbidden("not assigned to this ticket")
			}
			return err
		}

		resolution := &domain.TicketResolution{
			TicketID:       ticketID,
			ResolvedBy:     actor.ID(),
			ProofImageURL:  proofImageURL,
			ResolutionNote: note,
		}
		if err := tickets.CreateResolution(ctx, resolution); err != nil {
			return err
		}

		ticket.Status = domain.TicketStatusResolved
		return tickets.Update(ctx, ticket)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, domain.AuditEntry{
		Action:       domain.AuditTicketResolved,
		PerformedBy:  actor.ID(),
		TargetTicket: &ticket.ID,
	})
	publishEvent(ctx, s.dispatcher, events.EventTicketResolved, actor.ID(), events.TicketPayload{
		TicketID:   ticket.ID,
		ReporterID: ticket.ReporterID,
		Status:     ticket.Status,
	})
	return ticket, nil
}

// CloseTicket confirms a resolved ticket. Closing an already closed ticket
// is a no-op; a ticket that never had an assignee cannot be closed.
func (s *TicketService) CloseTicket(ctx context.Context, actor Actor, ticketID string) (*domain.Ticket, error) {
	if !actor.Bundle.CanCloseTickets() {
		return nil, apperrors.NewForbidden("admin role required to close tickets")
	}

	var ticket *domain.Ticket
	var alreadyClosed bool
	err := s.tx.InTx(ctx, func(tx pgx.Tx) error {
		tickets := s.tickets.WithTx(tx)

		var err error
		ticket, err = tickets.GetByIDForUpdate(ctx, ticketID)
		if err != nil {
			if err == pgx.ErrNoRows {
				return apperrors.NewNotFound("ticket", nil)
			}
			return err
		}
		if ticket.Status == domain.TicketStatusClosed {
			alreadyClosed = true
			return nil
		}
		if !domain.ValidTransition(ticket.Status, domain.TicketStatusClosed) {
			return apperrors.NewInvalidState("only resolved tickets can be closed",
				map[string]any{"status": ticket.Status})
		}

		assigned, err := tickets.CountAssignments(ctx, ticketID)
		if err != nil {
			return err
		}
		if assigned == 0 {
			return apperrors.NewInvalidState("ticket was never assigned", nil)
		}

		ticket.Status = domain.TicketStatusClosed
		return tickets.Update(ctx, ticket)
	})
	if err != nil {
		return nil, err
	}
	if alreadyClosed {
		return ticket, nil
	}

	s.audit.Record(ctx, domain.AuditEntry{
		Action:       domain.AuditTicketClosed,
		PerformedBy:  actor.ID(),
		TargetTicket: &ticket.ID,
	})
	publishEvent(ctx, s.dispatcher, events.EventTicketClosed, actor.ID(), events.TicketPayload{
		TicketID:   ticket.ID,
		ReporterID: ticket.ReporterID,
		Status:     ticket.Status,
	})
	return ticket, nil
}

// ReopenTicket brings a closed ticket back into the flow.
func (s *TicketService) ReopenTicket(ctx context.Context, actor Actor, ticketID string) (*domain.Ticket, error) {
	if !actor.Bundle.CanCloseTickets() {
		return nil, apperrors.NewForbidden("admin role required to reopen tickets")
	}

	var ticket *domain.Ticket
	err := s.tx.InTx(ctx, func(tx pgx.Tx) error {
		tickets := s.tickets.WithTx(tx)

		var err error
		ticket, err = tickets.GetByIDForUpdate(ctx, ticketID)
		if err != nil {
			if err == pgx.ErrNoRows {
				return apperrors.NewNotFound("ticket", nil)
			}
			return err
		}
		if !domain.ValidTransition(ticket.Status, domain.TicketStatusReopened) {
			return apperrors.NewInvalidState("only closed tickets can be reopened",
				map[string]any{"status": ticket.Status})
		}

		ticket.Status = domain.TicketStatusReopened
		return tickets.Update(ctx, ticket)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, domain.AuditEntry{
		Action:       domain.AuditTicketReopened,
		PerformedBy:  actor.ID(),
		TargetTicket: &ticket.ID,
	})
	publishEvent(ctx, s.dispatcher, events.EventTicketReopened, actor.ID(), events.TicketPayload{
		TicketID:   ticket.ID,
		ReporterID: ticket.ReporterID,
		Status:     ticket.Status,
	})
	return ticket, nil
}

// GetTicketForActor fetches a ticket with its images, enforcing visibility:
// reporters see their own tickets, assignees theirs, admin-level and
// assigners everything.
func (s *TicketService) GetTicketForActor(ctx context.Context, actor Actor, ticketID string) (*domain.Ticket, []domain.TicketImage, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, nil, err
	}

	if !actor.Bundle.IsAdminLevel && !actor.Bundle.CanAssign {
		allowed := ticket.ReporterID != nil && *ticket.ReporterID == actor.AccountID
		if !allowed {
			if _, err := s.tickets.GetAssignment(ctx, ticketID, actor.AccountID); err == nil {
				allowed = true
			} else if err != pgx.ErrNoRows {
				return nil, nil, err
			}
		}
		if !allowed {
			return nil, nil, apperrors.NewForbidden("access denied")
		}
	}

	images, err := s.tickets.ListImages(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	return ticket, images, nil
}

// ListTicketsForActor lists tickets scoped by the actor's permissions.
func (s *TicketService) ListTicketsForActor(ctx context.Context, actor Actor, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if !actor.Bundle.IsAdminLevel && !actor.Bundle.CanAssign {
		if actor.Bundle.CanFix {
			filter.AssigneeID = actor.AccountID
			filter.ReporterID = ""
		} else {
			filter.ReporterID = actor.AccountID
			filter.AssigneeID = ""
		}
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return s.tickets.List(ctx, filter)
}

// EligibleFixers returns verified profiles whose role can fix the category.
func (s *TicketService) EligibleFixers(ctx context.Context, category domain.Category) ([]domain.UserProfile, error) {
	if !domain.ValidCategory(category) {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": category})
	}
	return s.users.ListProfilesByRoles(ctx, s.registry.FixerRolesFor(category))
}

// RunEscalationSweep evaluates the escalation rules for every active ticket
// and persists the level changes. Returns how many tickets escalated. The
// sweep is idempotent; a second run at the same instant changes nothing.
// Each candidate is re-read under a row lock so a resolve or close that
// lands between the listing and the write is not overwritten.
func (s *TicketService) RunEscalationSweep(ctx context.Context, now time.Time) (int, error) {
	candidates, err := s.tickets.ListEscalatable(ctx)
	if err != nil {
		return 0, err
	}

	escalated := 0
	for i := range candidates {
		var ticket *domain.Ticket
		var level domain.EscalationLevel

		err := s.tx.InTx(ctx, func(tx pgx.Tx) error {
			tickets := s.tickets.WithTx(tx)
			current, err := tickets.GetByIDForUpdate(ctx, candidates[i].ID)
			if err != nil {
				if err == pgx.ErrNoRows {
					return nil
				}
				return err
			}
			if current.Terminal() {
				return nil
			}
			newLevel, changed := domain.EscalationDecision(current, now, s.thresholds)
			if !changed {
				return nil
			}
			current.EscalationLevel = newLevel
			if err := tickets.Update(ctx, current); err != nil {
				return err
			}
			ticket = current
			level = newLevel
			return nil
		})
		if err != nil {
			return escalated, err
		}
		if ticket == nil {
			continue
		}
		escalated++

		s.audit.Record(ctx, domain.AuditEntry{
			Action:       domain.AuditTicketEscalated,
			TargetTicket: &ticket.ID,
			Details:      fmt.Sprintf("escalated to %s", level),
		})
		publishEvent(ctx, s.dispatcher, events.EventTicketEscalated, nil, events.TicketPayload{
			TicketID:   ticket.ID,
			ReporterID: ticket.ReporterID,
			Status:     ticket.Status,
			Escalation: level,
		})
	}
	return escalated, nil
}
