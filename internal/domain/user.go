package domain

import "time"

// Role is the closed set of identities the platform knows about. Admin and
// support are equivalent for authorization but remain distinct for audit.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleSupport  Role = "support"
	RoleCustomer Role = "customer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSupport, RoleCustomer:
		return true
	}
	return false
}

// Staff reports whether the role carries staff-level access.
func (r Role) Staff() bool {
	return r == RoleAdmin || r == RoleSupport
}

// SubscriptionStatus tracks the commercial state of a user. Inactive users keep
// their records but fail key validation.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionInactive SubscriptionStatus = "inactive"
	SubscriptionTrial    SubscriptionStatus = "trial"
)

// Valid reports whether s is one of the known statuses.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionActive, SubscriptionInactive, SubscriptionTrial:
		return true
	}
	return false
}

// User is the identity-side account record. Users are never deleted; setting
// the subscription inactive is the deactivation path.
type User struct {
	ID                 int64
	Email              string
	Role               Role
	SubscriptionStatus SubscriptionStatus
	CreatedAt          time.Time
}
