package identity

import (
	"context"
	"time"

	"github.com/curadesk/support-platform/internal/domain"
	"github.com/curadesk/support-platform/internal/repository"
)

type fakeKeyRepo struct {
	byPrefix   map[string]*domain.APIKey
	nextID     int64
	insertErrs []error // popped per Insert call before normal handling
}

func newFakeKeyRepo() *fakeKeyRepo {
	return &fakeKeyRepo{byPrefix: make(map[string]*domain.APIKey)}
}

func (f *fakeKeyRepo) Insert(_ context.Context, key *domain.APIKey) error {
	if len(f.insertErrs) > 0 {
		err := f.insertErrs[0]
		f.insertErrs = f.insertErrs[1:]
		if err != nil {
			return err
		}
	}
	if _, exists := f.byPrefix[key.Prefix]; exists {
		return repository.ErrPrefixTaken
	}
	f.nextID++
	key.ID = f.nextID
	key.CreatedAt = time.Now()
	stored := *key
	f.byPrefix[key.Prefix] = &stored
	return nil
}

func (f *fakeKeyRepo) GetByPrefix(_ context.Context, prefix string) (*domain.APIKey, error) {
	key, ok := f.byPrefix[prefix]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *key
	return &copied, nil
}

func (f *fakeKeyRepo) Revoke(_ context.Context, prefix string) (repository.RevokeOutcome, error) {
	key, ok := f.byPrefix[prefix]
	if !ok {
		return repository.RevokeOutcomeNotFound, nil
	}
	if key.RevokedAt != nil {
		return repository.RevokeOutcomeAlreadyRevoked, nil
	}
	now := time.Now()
	key.RevokedAt = &now
	return repository.RevokeOutcomeRevoked, nil
}

func (f *fakeKeyRepo) List(_ context.Context) ([]domain.APIKeySummary, error) {
	var result []domain.APIKeySummary
	for _, key := range f.byPrefix {
		result = append(result, domain.APIKeySummary{
			ID:        key.ID,
			Prefix:    key.Prefix,
			UserID:    key.UserID,
			CreatedAt: key.CreatedAt,
			RevokedAt: key.RevokedAt,
		})
	}
	return result, nil
}

type fakeUserRepo struct {
	byID   map[int64]*domain.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[int64]*domain.User)}
}

func (f *fakeUserRepo) add(email string, role domain.Role, status domain.SubscriptionStatus) *domain.User {
	f.nextID++
	user := &domain.User{
		ID:                 f.nextID,
		Email:              email,
		Role:               role,
		SubscriptionStatus: status,
		CreatedAt:          time.Now(),
	}
	f.byID[user.ID] = user
	return user
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	created := f.add(user.Email, user.Role, user.SubscriptionStatus)
	user.ID = created.ID
	user.CreatedAt = created.CreatedAt
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range f.byID {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) List(_ context.Context) ([]domain.User, error) {
	var result []domain.User
	for _, user := range f.byID {
		result = append(result, *user)
	}
	return result, nil
}

func (f *fakeUserRepo) UpdateSubscriptionStatus(_ context.Context, id int64, status domain.SubscriptionStatus) error {
	user, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.SubscriptionStatus = status
	return nil
}
