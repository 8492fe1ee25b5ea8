package repository

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/ayachi01/FixItWeb/internal/domain"
)

// TicketFilter narrows ticket listings. Zero values mean no constraint.
type TicketFilter struct {
	Status     domain.TicketStatus
	Category   domain.Category
	ReporterID string
	AssigneeID string
	Limit      int
	Offset     int
}

type TicketRepository interface {
	WithTx(tx pgx.Tx) TicketRepository

	Create(ctx context.Context, t *domain.Ticket) error
	Update(ctx context.Context, t *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ListEscalatable(ctx context.Context) ([]domain.Ticket, error)

	AddImage(ctx context.Context, img *domain.TicketImage) error
	ListImages(ctx context.Context, ticketID string) ([]domain.TicketImage, error)

	CreateAssignment(ctx context.Context, a *domain.TicketAssignment) error
	GetAssignment(ctx context.Context, ticketID, assigneeID string) (*domain.TicketAssignment, error)
	MarkAssignmentAccepted(ctx context.Context, id string) error
	ListAssignments(ctx context.Context, ticketID string) ([]domain.TicketAssignment, error)
	CountAssignments(ctx context.Context, ticketID string) (int, error)
	CountActiveAssignments(ctx context.Context, assigneeID string) (int, error)

	CreateResolution(ctx context.Context, res *domain.TicketResolution) error
	ListResolutions(ctx context.Context, ticketID string) ([]domain.TicketResolution, error)
}

type ticketRepository struct {
	q Querier
}

func NewTicketRepository(q Querier) TicketRepository {
	return &ticketRepository{q: q}
}

func (r *ticketRepository) WithTx(tx pgx.Tx) TicketRepository {
	return &ticketRepository{q: tx}
}

const ticketColumns = `id, reporter_id, location_id, title, description, category,
    urgency, status, escalation_level, created_at, updated_at`

func scanTicket(row pgx.Row, t *domain.Ticket) error {
	return row.Scan(
		&t.ID,
		&t.ReporterID,
		&t.LocationID,
		&t.Title,
		&t.Description,
		&t.Category,
		&t.Urgency,
		&t.Status,
		&t.EscalationLevel,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
}

func (r *ticketRepository) Create(ctx context.Context, t *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (reporter_id, location_id, title, description, category, urgency, status, escalation_level)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at, updated_at`
	return r.q.QueryRow(ctx, query,
		t.ReporterID,
		t.LocationID,
		t.Title,
		t.Description,
		t.Category,
		t.Urgency,
		t.Status,
		t.EscalationLevel,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, t *domain.Ticket) error {
	const query = `
        UPDATE tickets
        SET status=$2, escalation_level=$3, urgency=$4, updated_at=NOW()
        WHERE id=$1
        RETURNING updated_at`
	return r.q.QueryRow(ctx, query, t.ID, t.Status, t.EscalationLevel, t.Urgency).
		Scan(&t.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`

	var t domain.Ticket
	if err := scanTicket(r.q.QueryRow(ctx, query, id), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *ticketRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1 FOR UPDATE`

	var t domain.Ticket
	if err := scanTicket(r.q.QueryRow(ctx, query, id), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE 1=1`
	args := []any{}
	idx := 1

	appendArg := func(clause string, value any) {
		query += ` AND ` + clause + `$` + strconv.Itoa(idx)
		args = append(args, value)
		idx++
	}

	if filter.Status != "" {
		appendArg("status=", filter.Status)
	}
	if filter.Category != "" {
		appendArg("category=", filter.Category)
	}
	if filter.ReporterID != "" {
		appendArg("reporter_id=", filter.ReporterID)
	}
	if filter.AssigneeID != "" {
		query += ` AND id IN (SELECT ticket_id FROM ticket_assignments WHERE assignee_id=$` + strconv.Itoa(idx) + `)`
		args = append(args, filter.AssigneeID)
		idx++
	}

	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT $` + strconv.Itoa(idx)
		args = append(args, filter.Limit)
		idx++
	}
	if filter.Offset > 0 {
		query += ` OFFSET $` + strconv.Itoa(idx)
		args = append(args, filter.Offset)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTickets(rows)
}

// ListEscalatable returns all tickets still in the active flow, for the
// periodic escalation sweep.
func (r *ticketRepository) ListEscalatable(ctx context.Context) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
        WHERE status NOT IN ('Resolved', 'Closed')
        ORDER BY created_at`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTickets(rows)
}

func collectTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	for rows.Next() {
		var t domain.Ticket
		if err := scanTicket(rows, &t); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (r *ticketRepository) AddImage(ctx context.Context, img *domain.TicketImage) error {
	const query = `
        INSERT INTO ticket_images (ticket_id, image_url, uploaded_by)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`
	return r.q.QueryRow(ctx, query, img.TicketID, img.ImageURL, img.UploadedBy).
		Scan(&img.ID, &img.CreatedAt)
}

func (r *ticketRepository) ListImages(ctx context.Context, ticketID string) ([]domain.TicketImage, error) {
	const query = `
        SELECT id, ticket_id, image_url, uploaded_by, created_at
        FROM ticket_images
        WHERE ticket_id=$1
        ORDER BY created_at`

	rows, err := r.q.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []domain.TicketImage
	for rows.Next() {
		var img domain.TicketImage
		if err := rows.Scan(&img.ID, &img.TicketID, &img.ImageURL, &img.UploadedBy, &img.CreatedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (r *ticketRepository) CreateAssignment(ctx context.Context, a *domain.TicketAssignment) error {
	const query = `
        INSERT INTO ticket_assignments (ticket_id, assignee_id)
        VALUES ($1, $2)
        RETURNING id, assigned_at`
	return r.q.QueryRow(ctx, query, a.TicketID, a.AssigneeID).
		Scan(&a.ID, &a.AssignedAt)
}

func (r *ticketRepository) GetAssignment(ctx context.Context, ticketID, assigneeID string) (*domain.TicketAssignment, error) {
	const query = `
        SELECT id, ticket_id, assignee_id, assigned_at, accepted, accepted_at
        FROM ticket_assignments
        WHERE ticket_id=$1 AND assignee_id=$2`

	var a domain.TicketAssignment
	if err := r.q.QueryRow(ctx, query, ticketID, assigneeID).Scan(
		&a.ID,
		&a.TicketID,
		&a.AssigneeID,
		&a.AssignedAt,
		&a.Accepted,
		&a.AcceptedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ticketRepository) MarkAssignmentAccepted(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE ticket_assignments SET accepted=TRUE, accepted_at=NOW() WHERE id=$1 AND accepted=FALSE`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) ListAssignments(ctx context.Context, ticketID string) ([]domain.TicketAssignment, error) {
	const query = `
        SELECT id, ticket_id, assignee_id, assigned_at, accepted, accepted_at
        FROM ticket_assignments
        WHERE ticket_id=$1
        ORDER BY assigned_at`

	rows, err := r.q.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []domain.TicketAssignment
	for rows.Next() {
		var a domain.TicketAssignment
		if err := rows.Scan(&a.ID, &a.TicketID, &a.AssigneeID, &a.AssignedAt, &a.Accepted, &a.AcceptedAt); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (r *ticketRepository) CountAssignments(ctx context.Context, ticketID string) (int, error) {
	var count int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM ticket_assignments WHERE ticket_id=$1`, ticketID).
		Scan(&count)
	return count, err
}

// CountActiveAssignments counts tickets currently on a fixer's plate, joining
// through to ticket status so stale assignments on finished tickets do not
// consume capacity.
func (r *ticketRepository) CountActiveAssignments(ctx context.Context, assigneeID string) (int, error) {
	const query = `
        SELECT COUNT(*)
        FROM ticket_assignments a
        JOIN tickets t ON t.id = a.ticket_id
        WHERE a.assignee_id=$1 AND t.status IN ('Created', 'Assigned', 'In Progress')`

	var count int
	err := r.q.QueryRow(ctx, query, assigneeID).Scan(&count)
	return count, err
}

func (r *ticketRepository) CreateResolution(ctx context.Context, res *domain.TicketResolution) error {
	const query = `
        INSERT INTO ticket_resolutions (ticket_id, resolved_by, proof_image_url, resolution_note)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`
	return r.q.QueryRow(ctx, query, res.TicketID, res.ResolvedBy, res.ProofImageURL, res.ResolutionNote).
		Scan(&res.ID, &res.CreatedAt)
}

func (r *ticketRepository) ListResolutions(ctx context.Context, ticketID string) ([]domain.TicketResolution, error) {
	const query = `
        SELECT id, ticket_id, resolved_by, proof_image_url, resolution_note, created_at
        FROM ticket_resolutions
        WHERE ticket_id=$1
        ORDER BY created_at`

	rows, err := r.q.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var resolutions []domain.TicketResolution
	for rows.Next() {
		var res domain.TicketResolution
		if err := rows.Scan(&res.ID, &res.TicketID, &res.ResolvedBy, &res.ProofImageURL, &res.ResolutionNote, &res.CreatedAt); err != nil {
			return nil, err
		}
		resolutions = append(resolutions, res)
	}
	return resolutions, rows.Err()
}
