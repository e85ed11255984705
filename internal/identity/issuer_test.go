package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/curadesk/support-platform/internal/domain"
	"github.com/curadesk/support-platform/internal/repository"
)

func TestIssue_ReturnsPlaintextOnceAndStoresOnlyDigest(t *testing.T) {
	t.Parallel()

	keys := newFakeKeyRepo()
	users := newFakeUserRepo()
	user := users.add("customer@curadesk.local", domain.RoleCustomer, domain.SubscriptionActive)

	issuer := NewIssuer(keys, users, zap.NewNop())
	plaintext, record, err := issuer.Issue(context.Background(), user.ID)
	require.NoError(t, err)

	prefix, ok := ParseKey(plaintext)
	require.True(t, ok)
	assert.Equal(t, prefix, record.Prefix)
	assert.Equal(t, HashKey(plaintext), record.SecretHash)
	assert.NotEqual(t, plaintext, record.SecretHash)

	stored, err := keys.GetByPrefix(context.Background(), prefix)
	require.NoError(t, err)
	assert.Equal(t, record.SecretHash, stored.SecretHash)
	assert.NotContains(t, stored.SecretHash, plaintext)
}

func TestIssue_UnknownUser(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer(newFakeKeyRepo(), newFakeUserRepo(), zap.NewNop())
	_, _, err := issuer.Issue(context.Background(), 42)
	require.Error(t, err)
}

func TestIssue_RetriesOnPrefixCollision(t *testing.T) {
	t.Parallel()

	keys := newFakeKeyRepo()
	keys.insertErrs = []error{repository.ErrPrefixTaken, repository.ErrPrefixTaken}
	users := newFakeUserRepo()
	user := users.add("customer@curadesk.local", domain.RoleCustomer, domain.SubscriptionActive)

	issuer := NewIssuer(keys, users, zap.NewNop())
	plaintext, _, err := issuer.Issue(context.Background(), user.ID)
	require.NoError(t, err)
	_, ok := ParseKey(plaintext)
	assert.True(t, ok)
}

func TestRevoke_Outcomes(t *testing.T) {
	t.Parallel()

	keys := newFakeKeyRepo()
	users := newFakeUserRepo()
	user := users.add("customer@curadesk.local", domain.RoleCustomer, domain.SubscriptionActive)

	issuer := NewIssuer(keys, users, zap.NewNop())
	plaintext, record, err := issuer.Issue(context.Background(), user.ID)
	require.NoError(t, err)

	outcome, err := issuer.Revoke(context.Background(), record.Prefix)
	require.NoError(t, err)
	assert.Equal(t, repository.RevokeOutcomeRevoked, outcome)

	outcome, err = issuer.Revoke(context.Background(), record.Prefix)
	require.NoError(t, err)
	assert.Equal(t, repository.RevokeOutcomeAlreadyRevoked, outcome)

	outcome, err = issuer.Revoke(context.Background(), "unknown1")
	require.NoError(t, err)
	assert.Equal(t, repository.RevokeOutcomeNotFound, outcome)

	// The revoked key must no longer validate.
	validator := NewValidator(keys, users, nil, zap.NewNop())
	verdict := validator.Validate(context.Background(), plaintext)
	assert.False(t, verdict.Valid)
}

func TestListKeys_NeverExposesDigest(t *testing.T) {
	t.Parallel()

	keys := newFakeKeyRepo()
	users := newFakeUserRepo()
	user := users.add("customer@curadesk.local", domain.RoleCustomer, domain.SubscriptionActive)

	issuer := NewIssuer(keys, users, zap.NewNop())
	plaintext, record, err := issuer.Issue(context.Background(), user.ID)
	require.NoError(t, err)

	summaries, err := issuer.ListKeys(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, record.Prefix, summaries[0].Prefix)

	// The summary type has no place to carry the digest or the plaintext.
	_ = plaintext
}
