package domain

// VerdictReason records internally why validation failed. Reasons are for logs
// and metrics only; the wire response carries a bare valid=false regardless of
// reason so external callers cannot distinguish the failing check.
type VerdictReason string

const (
	ReasonMalformed            VerdictReason = "malformed"
	ReasonNotFound             VerdictReason = "not_found"
	ReasonHashMismatch         VerdictReason = "hash_mismatch"
	ReasonRevoked              VerdictReason = "revoked"
	ReasonSubscriptionInactive VerdictReason = "subscription_inactive"
)

// Verdict is the ephemeral result of validating a presented key. The identity
// side never persists it; the resource side may cache it with a bounded TTL.
type Verdict struct {
	Valid              bool
	Reason             VerdictReason
	UserID             int64
	Email              string
	Role               Role
	SubscriptionStatus SubscriptionStatus
}

// Invalid builds a failed verdict for the given internal reason.
func Invalid(reason VerdictReason) Verdict {
	return Verdict{Valid: false, Reason: reason}
}
