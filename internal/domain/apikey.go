package domain

import "time"

// APIKey is the stored shape of an issued key. Only the 8-character prefix and
// the SHA-256 digest of the full key survive issuance; the plaintext is handed
// to the caller once and is unrecoverable afterwards. Records are never
// deleted, revocation is the tombstone.
type APIKey struct {
	ID         int64
	UserID     int64
	Prefix     string
	SecretHash string
	CreatedAt  time.Time
	RevokedAt  *time.Time
}

// Revoked reports whether the key has been revoked. Revocation is monotonic.
func (k *APIKey) Revoked() bool {
	return k.RevokedAt != nil
}

// APIKeySummary is the listing shape. It deliberately has no field for the
// secret hash so a listing can never leak digest material.
type APIKeySummary struct {
	ID        int64
	Prefix    string
	UserID    int64
	UserEmail string
	CreatedAt time.Time
	RevokedAt *time.Time
}
