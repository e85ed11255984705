package dto

import (
	"time"

	"github.com/curadesk/support-platform/internal/domain"
)

// UpdateStateRequest payload for the admin state endpoint.
type UpdateStateRequest struct {
	State string `json:"state" validate:"required"`
}

// CreateCommentRequest payload for the admin comment endpoint.
type CreateCommentRequest struct {
	Body string `json:"body" validate:"required,min=1,max=10000"`
}

// TicketSummary response.
type TicketSummary struct {
	ID          int64              `json:"id"`
	OwnerID     int64              `json:"owner_id"`
	Description string             `json:"description"`
	State       domain.TicketState `json:"state"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// CommentResponse represents one entry of a ticket thread.
type CommentResponse struct {
	ID        int64     `json:"id"`
	TicketID  int64     `json:"ticket_id"`
	AuthorID  int64     `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// BundleSummary describes a stored attachment bundle. Storage keys stay
// server-side.
type BundleSummary struct {
	FileName     string    `json:"file_name"`
	OriginalSize int64     `json:"original_size"`
	EntryCount   int       `json:"entry_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	Comments []CommentResponse `json:"comments"`
}

// NewTicketSummary maps a domain ticket.
func NewTicketSummary(ticket *domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:          ticket.ID,
		OwnerID:     ticket.OwnerID,
		Description: ticket.Description,
		State:       ticket.State,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}

// NewTicketDetail maps a ticket with its comment thread.
func NewTicketDetail(ticket *domain.Ticket, comments []domain.Comment) TicketDetailResponse {
	out := TicketDetailResponse{
		TicketSummary: NewTicketSummary(ticket),
		Comments:      make([]CommentResponse, 0, len(comments)),
	}
	for _, comment := range comments {
		out.Comments = append(out.Comments, NewCommentResponse(&comment))
	}
	return out
}

// NewCommentResponse maps a domain comment.
func NewCommentResponse(comment *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID,
		TicketID:  comment.TicketID,
		AuthorID:  comment.AuthorID,
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
	}
}

// NewBundleSummary maps a stored bundle.
func NewBundleSummary(bundle *domain.AttachmentBundle) BundleSummary {
	return BundleSummary{
		FileName:     bundle.FileName,
		OriginalSize: bundle.OriginalSize,
		EntryCount:   bundle.EntryCount,
		CreatedAt:    bundle.CreatedAt,
	}
}
