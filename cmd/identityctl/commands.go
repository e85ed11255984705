package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/curadesk/support-platform/internal/config"
	"github.com/curadesk/support-platform/internal/domain"
	"github.com/curadesk/support-platform/internal/identity"
	"github.com/curadesk/support-platform/internal/persistence"
	"github.com/curadesk/support-platform/internal/repository"
)

var validate = validator.New()

// store bundles the identity-side repositories for a single CLI invocation.
type store struct {
	users repository.UserRepository
	keys  repository.APIKeyRepository
}

// withStore loads config, connects to the identity database, and runs fn.
func withStore(fn func(ctx context.Context, s store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.IdentityPostgres, zap.NewNop())
	if err != nil {
		return err
	}
	defer pg.Close()

	if cfg.IdentityPostgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.IdentityPostgres.MigrationsDir, zap.NewNop()); err != nil {
			return err
		}
	}

	pool := pg.PoolHandle()
	return fn(ctx, store{
		users: repository.NewUserRepository(pool),
		keys:  repository.NewAPIKeyRepository(pool),
	})
}

func newCreateUserCommand() *cobra.Command {
	var (
		email        string
		role         string
		subscription string
	)
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validate.Var(email, "required,email"); err != nil {
				return fmt.Errorf("invalid email %q", email)
			}
			userRole := domain.Role(role)
			if !userRole.Valid() {
				return fmt.Errorf("invalid role %q (admin, support, customer)", role)
			}
			status := domain.SubscriptionStatus(subscription)
			if !status.Valid() {
				return fmt.Errorf("invalid subscription status %q (active, inactive, trial)", subscription)
			}

			return withStore(func(ctx context.Context, s store) error {
				user := &domain.User{Email: email, Role: userRole, SubscriptionStatus: status}
				if err := s.users.Create(ctx, user); err != nil {
					return err
				}
				fmt.Printf("created user %d (%s, role=%s, subscription=%s)\n", user.ID, user.Email, user.Role, user.SubscriptionStatus)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "User email address")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleCustomer), "Role: admin, support, or customer")
	cmd.Flags().StringVar(&subscription, "subscription", string(domain.SubscriptionActive), "Subscription status: active, inactive, or trial")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newCreateKeyCommand() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "create-key",
		Short: "Mint an API key for a user",
		Long:  `Mint a new API key. The full key is printed once and cannot be recovered afterwards; only its SHA-256 digest is stored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, s store) error {
				user, err := s.users.GetByEmail(ctx, email)
				if err != nil {
					if errors.Is(err, repository.ErrNotFound) {
						return fmt.Errorf("no user with email %q", email)
					}
					return err
				}

				issuer := identity.NewIssuer(s.keys, s.users, zap.NewNop())
				plaintext, key, err := issuer.Issue(ctx, user.ID)
				if err != nil {
					return err
				}

				fmt.Printf("key for %s (prefix %s):\n\n    %s\n\nstore it now; it will not be shown again\n", user.Email, key.Prefix, plaintext)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email of the key owner")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRevokeKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke-key <prefix>",
		Short: "Revoke an API key by prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, s store) error {
				outcome, err := s.keys.Revoke(ctx, args[0])
				if err != nil {
					return err
				}
				switch outcome {
				case repository.RevokeOutcomeRevoked:
					fmt.Printf("key %s revoked\n", args[0])
				case repository.RevokeOutcomeAlreadyRevoked:
					fmt.Printf("key %s was already revoked\n", args[0])
				default:
					fmt.Printf("no key with prefix %s\n", args[0])
				}
				return nil
			})
		},
	}
}

func newListUsersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list-users",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, s store) error {
				users, err := s.users.List(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("%-6s %-32s %-10s %-10s %s\n", "ID", "EMAIL", "ROLE", "SUB", "CREATED")
				for _, user := range users {
					fmt.Printf("%-6d %-32s %-10s %-10s %s\n",
						user.ID, user.Email, user.Role, user.SubscriptionStatus,
						user.CreatedAt.Format(time.RFC3339))
				}
				return nil
			})
		},
	}
}

func newListKeysCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list-keys",
		Short: "List API keys (prefixes only, never secrets)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, s store) error {
				keys, err := s.keys.List(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("%-10s %-32s %-22s %s\n", "PREFIX", "OWNER", "CREATED", "REVOKED")
				for _, key := range keys {
					revoked := "-"
					if key.RevokedAt != nil {
						revoked = key.RevokedAt.Format(time.RFC3339)
					}
					fmt.Printf("%-10s %-32s %-22s %s\n",
						key.Prefix, key.UserEmail,
						key.CreatedAt.Format(time.RFC3339), revoked)
				}
				return nil
			})
		},
	}
}

func newSetSubscriptionCommand() *cobra.Command {
	var (
		email  string
		status string
	)
	cmd := &cobra.Command{
		Use:   "set-subscription",
		Short: "Change a user's subscription status",
		RunE: func(cmd *cobra.Command, args []string) error {
			subscription := domain.SubscriptionStatus(status)
			if !subscription.Valid() {
				return fmt.Errorf("invalid subscription status %q (active, inactive, trial)", status)
			}
			return withStore(func(ctx context.Context, s store) error {
				user, err := s.users.GetByEmail(ctx, email)
				if err != nil {
					if errors.Is(err, repository.ErrNotFound) {
						return fmt.Errorf("no user with email %q", email)
					}
					return err
				}
				if err := s.users.UpdateSubscriptionStatus(ctx, user.ID, subscription); err != nil {
					return err
				}
				fmt.Printf("user %s subscription set to %s\n", user.Email, subscription)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "User email address")
	cmd.Flags().StringVar(&status, "status", "", "New status: active, inactive, or trial")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed a demo admin, support rep, and customer with keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, s store) error {
				issuer := identity.NewIssuer(s.keys, s.users, zap.NewNop())
				seeds := []domain.User{
					{Email: "admin@curadesk.local", Role: domain.RoleAdmin, SubscriptionStatus: domain.SubscriptionActive},
					{Email: "support@curadesk.local", Role: domain.RoleSupport, SubscriptionStatus: domain.SubscriptionActive},
					{Email: "customer@curadesk.local", Role: domain.RoleCustomer, SubscriptionStatus: domain.SubscriptionActive},
				}
				for i := range seeds {
					user := &seeds[i]
					if existing, err := s.users.GetByEmail(ctx, user.Email); err == nil {
						fmt.Printf("%s already exists (id %d), skipping\n", existing.Email, existing.ID)
						continue
					} else if !errors.Is(err, repository.ErrNotFound) {
						return err
					}
					if err := s.users.Create(ctx, user); err != nil {
						return err
					}
					plaintext, key, err := issuer.Issue(ctx, user.ID)
					if err != nil {
						return err
					}
					fmt.Printf("%s (%s): prefix=%s key=%s\n", user.Email, user.Role, key.Prefix, plaintext)
				}
				return nil
			})
		},
	}
}
