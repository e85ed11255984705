package identity

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/curadesk/support-platform/internal/domain"
	"github.com/curadesk/support-platform/internal/repository"
)

// prefixRetries bounds regeneration attempts on a prefix collision. The prefix
// is a lookup key, not a security boundary, so regenerating is safe.
const prefixRetries = 5

// Issuer mints and revokes API keys. The plaintext key leaves through the
// Issue return value exactly once and is never logged or stored.
type Issuer struct {
	keys   repository.APIKeyRepository
	users  repository.UserRepository
	logger *zap.Logger
}

// NewIssuer constructs the issuer.
func NewIssuer(keys repository.APIKeyRepository, users repository.UserRepository, logger *zap.Logger) *Issuer {
	return &Issuer{keys: keys, users: users, logger: logger}
}

// Issue generates a key for the user and persists prefix plus digest. The
// returned plaintext is the caller's one chance to display it.
func (i *Issuer) Issue(ctx context.Context, userID int64) (string, *domain.APIKey, error) {
	user, err := i.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, fmt.Errorf("user %d not found", userID)
		}
		return "", nil, err
	}

	for attempt := 0; attempt < prefixRetries; attempt++ {
		generated, err := GenerateKey()
		if err != nil {
			return "", nil, err
		}

		record := &domain.APIKey{
			UserID:     user.ID,
			Prefix:     generated.Prefix,
			SecretHash: generated.Hash,
		}
		err = i.keys.Insert(ctx, record)
		if errors.Is(err, repository.ErrPrefixTaken) {
			i.logger.Warn("key prefix collision, regenerating", zap.String("prefix", generated.Prefix))
			continue
		}
		if err != nil {
			return "", nil, err
		}

		i.logger.Info("api key issued",
			zap.String("prefix", record.Prefix),
			zap.Int64("user_id", user.ID),
		)
		return generated.FullKey, record, nil
	}
	return "", nil, errors.New("could not find a free key prefix")
}

// Revoke marks the key with the given prefix revoked. Revocation is
// irreversible and idempotent; the outcome tells the operator whether the
// prefix was active, already revoked, or unknown.
func (i *Issuer) Revoke(ctx context.Context, prefix string) (repository.RevokeOutcome, error) {
	outcome, err := i.keys.Revoke(ctx, prefix)
	if err != nil {
		return outcome, err
	}
	if outcome == repository.RevokeOutcomeRevoked {
		i.logger.Info("api key revoked", zap.String("prefix", prefix))
	}
	return outcome, nil
}

// ListKeys returns key summaries. The summary type has no hash field; nothing
// secret can leave through a listing.
func (i *Issuer) ListKeys(ctx context.Context) ([]domain.APIKeySummary, error) {
	return i.keys.List(ctx)
}
