package dto

import (
	"time"

	"github.com/ayachi01/FixItWeb/internal/domain"
)

// TicketCreateRequest payload for reporting an issue.
type TicketCreateRequest struct {
	LocationID  string   `json:"location_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Urgency     string   `json:"urgency,omitempty"`
	ImageURLs   []string `json:"image_urls"`
}

// TicketAssignRequest payload for assigning a fixer.
type TicketAssignRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// TicketResolveRequest payload for resolving.
type TicketResolveRequest struct {
	Note          string  `json:"note"`
	ProofImageURL *string `json:"proof_image_url,omitempty"`
}

// TicketResponse is the public ticket representation.
type TicketResponse struct {
	ID              string    `json:"id"`
	ReporterID      *string   `json:"reporter_id,omitempty"`
	LocationID      string    `json:"location_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Category        string    `json:"category"`
	Urgency         string    `json:"urgency"`
	Status          string    `json:"status"`
	EscalationLevel string    `json:"escalation_level"`
	ImageURLs       []string  `json:"image_urls,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewTicketResponse maps a ticket and its images.
func NewTicketResponse(t *domain.Ticket, images []domain.TicketImage) TicketResponse {
	resp := TicketResponse{
		ID:              t.ID,
		ReporterID:      t.ReporterID,
		LocationID:      t.LocationID,
		Title:           t.Title,
		Description:     t.Description,
		Category:        string(t.Category),
		Urgency:         string(t.Urgency),
		Status:          string(t.Status),
		EscalationLevel: string(t.EscalationLevel),
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
	for _, img := range images {
		resp.ImageURLs = append(resp.ImageURLs, img.ImageURL)
	}
	return resp
}

// NewTicketListResponse maps tickets without images.
func NewTicketListResponse(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewTicketResponse(&tickets[i], nil))
	}
	return out
}
