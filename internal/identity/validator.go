package identity

import (
	"context"
	"crypto/subtle"
	"errors"

	"go.uber.org/zap"

	"github.com/curadesk/support-platform/internal/domain"
	"github.com/curadesk/support-platform/internal/repository"
)

// Validator resolves presented keys to verdicts on the identity side. Failure
// reasons stay internal; the HTTP handler serializes every failed verdict as a
// bare valid=false so callers cannot learn which check rejected them.
type Validator struct {
	keys    repository.APIKeyRepository
	users   repository.UserRepository
	limiter *RateLimiter
	logger  *zap.Logger
}

// NewValidator constructs the validator. limiter may be nil to disable rate
// limiting.
func NewValidator(keys repository.APIKeyRepository, users repository.UserRepository, limiter *RateLimiter, logger *zap.Logger) *Validator {
	return &Validator{keys: keys, users: users, limiter: limiter, logger: logger}
}

// Validate checks a candidate key and returns the verdict. The candidate is
// hashed for any logging context; plaintext key material never reaches a log.
func (v *Validator) Validate(ctx context.Context, candidate string) domain.Verdict {
	prefix, ok := ParseKey(candidate)
	if !ok {
		v.reject(domain.ReasonMalformed, "")
		return domain.Invalid(domain.ReasonMalformed)
	}

	if v.limiter != nil && !v.limiter.Allow(ctx, prefix) {
		// Rate-limited attempts are rejected as not_found so the limiter does
		// not become a side channel.
		v.reject(domain.ReasonNotFound, prefix)
		return domain.Invalid(domain.ReasonNotFound)
	}

	key, err := v.keys.GetByPrefix(ctx, prefix)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			v.logger.Error("key lookup failed", zap.Error(err))
		}
		v.reject(domain.ReasonNotFound, prefix)
		return domain.Invalid(domain.ReasonNotFound)
	}

	candidateHash := HashKey(candidate)
	if subtle.ConstantTimeCompare([]byte(candidateHash), []byte(key.SecretHash)) != 1 {
		v.reject(domain.ReasonHashMismatch, prefix)
		return domain.Invalid(domain.ReasonHashMismatch)
	}

	if key.Revoked() {
		v.reject(domain.ReasonRevoked, prefix)
		return domain.Invalid(domain.ReasonRevoked)
	}

	user, err := v.users.GetByID(ctx, key.UserID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			v.logger.Error("user lookup failed", zap.Error(err))
		}
		v.reject(domain.ReasonNotFound, prefix)
		return domain.Invalid(domain.ReasonNotFound)
	}

	if user.SubscriptionStatus == domain.SubscriptionInactive {
		v.reject(domain.ReasonSubscriptionInactive, prefix)
		return domain.Invalid(domain.ReasonSubscriptionInactive)
	}

	return domain.Verdict{
		Valid:              true,
		UserID:             user.ID,
		Email:              user.Email,
		Role:               user.Role,
		SubscriptionStatus: user.SubscriptionStatus,
	}
}

func (v *Validator) reject(reason domain.VerdictReason, prefix string) {
	fields := []zap.Field{zap.String("reason", string(reason))}
	if prefix != "" {
		fields = append(fields, zap.String("prefix", prefix))
	}
	v.logger.Info("validation rejected", fields...)
}
