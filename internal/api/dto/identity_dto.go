package dto

import (
	"time"

	"github.com/curadesk/support-platform/internal/domain"
)

// ValidateRequest is the trust-boundary check payload. The plaintext key is
// consumed for hashing and never persisted or logged.
type ValidateRequest struct {
	APIKey string `json:"api_key" validate:"required"`
}

// ValidatedUser is the identity snapshot attached to a successful validation.
type ValidatedUser struct {
	ID                 int64                     `json:"id"`
	Email              string                    `json:"email"`
	Role               domain.Role               `json:"role"`
	SubscriptionStatus domain.SubscriptionStatus `json:"subscription_status"`
}

// ValidateResponse is the verdict envelope. On failure the body carries only
// `{"valid": false}`; the internal reason stays on the identity side.
type ValidateResponse struct {
	Valid bool           `json:"valid"`
	User  *ValidatedUser `json:"user,omitempty"`
}

// NewValidateResponse maps a verdict, stripping everything but the public
// fields. Invalid verdicts map to the bare failure body regardless of reason.
func NewValidateResponse(verdict domain.Verdict) ValidateResponse {
	if !verdict.Valid {
		return ValidateResponse{Valid: false}
	}
	return ValidateResponse{
		Valid: true,
		User: &ValidatedUser{
			ID:                 verdict.UserID,
			Email:              verdict.Email,
			Role:               verdict.Role,
			SubscriptionStatus: verdict.SubscriptionStatus,
		},
	}
}

// KeySummary is the redacted key listing row. No hash field exists on this
// type at all.
type KeySummary struct {
	Prefix    string     `json:"prefix"`
	UserEmail string     `json:"user_email"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}
