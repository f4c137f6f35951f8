package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lounge-pos-backend/internal/config"
	"lounge-pos-backend/internal/domain"
	"lounge-pos-backend/internal/logger"
	"lounge-pos-backend/internal/repository"
	"lounge-pos-backend/internal/security"

	"github.com/google/uuid"
)

// Result counts what ReconcileAccounts did.
type Result struct {
	Created   int
	Updated   int
	Unchanged int
}

// ReconcileAccounts makes sure every configured staff account exists with
// the configured role and password. Running it again with the same input
// changes nothing.
func ReconcileAccounts(ctx context.Context, store repository.Store, accounts []config.AccountConfig) (Result, error) {
	logger.EnterMethod("bootstrap.ReconcileAccounts", "accounts", len(accounts))

	var res Result
	for _, acct := range accounts {
		var outcome string
		err := store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
			var err error
			outcome, err = reconcile(ctx, repos.Users, acct)
			return err
		})
		if err != nil {
			logger.ExitMethodWithError("bootstrap.ReconcileAccounts", err, "email", acct.Email)
			return res, fmt.Errorf("reconcile account %s: %w", acct.Email, err)
		}

		switch outcome {
		case "created":
			res.Created++
		case "updated":
			res.Updated++
		default:
			res.Unchanged++
		}
		logger.Info("Staff account reconciled", "email", acct.Email, "role", acct.Role, "outcome", outcome)
	}

	logger.ExitMethod("bootstrap.ReconcileAccounts", "created", res.Created, "updated", res.Updated, "unchanged", res.Unchanged)
	return res, nil
}

func reconcile(ctx context.Context, users repository.UserRepository, acct config.AccountConfig) (string, error) {
	role := domain.Role(acct.Role)
	if !role.Valid() {
		return "", domain.NewValidationError("role", "must be Admin or Cashier")
	}
	password := acct.ResolvePassword()
	email := strings.ToLower(strings.TrimSpace(acct.Email))

	user, err := users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		if password == "" {
			return "", domain.NewValidationError("password", "is required for a new account")
		}
		hash, err := security.HashPassword(password)
		if err != nil {
			return "", err
		}
		user = &domain.User{
			ID:           uuid.NewString(),
			Name:         acct.Name,
			Email:        email,
			Phone:        acct.Phone,
			Role:         role,
			PasswordHash: hash,
		}
		return "created", users.Create(ctx, user)
	}
	if err != nil {
		return "", err
	}

	changed := false
	if user.Role != role {
		user.Role = role
		changed = true
	}
	if acct.Name != "" && user.Name != acct.Name {
		user.Name = acct.Name
		changed = true
	}
	if acct.Phone != "" && user.Phone != acct.Phone {
		user.Phone = acct.Phone
		changed = true
	}
	// Only rotate the hash when the configured password no longer matches,
	// so restarts do not rewrite it.
	if password != "" && !security.PasswordMatches(user.PasswordHash, password) {
		hash, err := security.HashPassword(password)
		if err != nil {
			return "", err
		}
		user.PasswordHash = hash
		changed = true
	}

	if !changed {
		return "unchanged", nil
	}
	return "updated", users.Update(ctx, user)
}
