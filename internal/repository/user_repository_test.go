package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curadesk/support-platform/internal/domain"
)

// stubRow satisfies pgx.Row for driving scanUser without a live pool.
type stubRow struct {
	err  error
	user domain.User
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*int64) = r.user.ID
	*dest[1].(*string) = r.user.Email
	*dest[2].(*domain.Role) = r.user.Role
	*dest[3].(*domain.SubscriptionStatus) = r.user.SubscriptionStatus
	*dest[4].(*time.Time) = r.user.CreatedAt
	return nil
}

func TestScanUser_MapsNoRowsToSentinel(t *testing.T) {
	t.Parallel()

	// Callers match on the package sentinel, never on the driver error.
	_, err := scanUser(stubRow{err: pgx.ErrNoRows})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, pgx.ErrNoRows)
}

func TestScanUser_PassesOtherErrorsThrough(t *testing.T) {
	t.Parallel()

	scanErr := errors.New("connection reset")
	_, err := scanUser(stubRow{err: scanErr})
	assert.ErrorIs(t, err, scanErr)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestScanUser_PopulatesUser(t *testing.T) {
	t.Parallel()

	want := domain.User{
		ID:                 7,
		Email:              "one@example.com",
		Role:               domain.RoleCustomer,
		SubscriptionStatus: domain.SubscriptionActive,
		CreatedAt:          time.Now(),
	}
	got, err := scanUser(stubRow{user: want})
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}
