package services

import (
	"context"
	"errors"

	"menuhub/internal/auth"
	"menuhub/internal/config"
	"menuhub/internal/models"
	"menuhub/internal/utils/logger"
)

var seedLog = logger.New("seed")

// SeedIdentities creates the bootstrap dev and admin identities named in the
// configuration when they do not exist yet.
func SeedIdentities(ctx context.Context, store Store, cfg config.SeedConfig) error {
	if err := seedIdentity(ctx, store, cfg.DevEmail, cfg.DevPassword, models.RoleDev); err != nil {
		return err
	}
	return seedIdentity(ctx, store, cfg.AdminEmail, cfg.AdminPassword, models.RoleAdmin)
}

func seedIdentity(ctx context.Context, store Store, email, password string, role models.Role) error {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		seedLog.Debug("No %s identity configured, skipping", role)
		return nil
	}

	_, err := store.FindByEmail(ctx, email)
	if err == nil {
		seedLog.Info("%s identity %s already exists", role, email)
		return nil
	}
	if !errors.Is(err, auth.ErrNotFound) {
		return seedLog.Error("Failed to look up %s identity", err, role)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return seedLog.Error("Failed to hash %s password", err, role)
	}
	identity := &models.Identity{
		Email:     email,
		Password:  hash,
		FirstName: string(role),
		Role:      role,
		State:     models.StateActive,
		Active:    true,
	}
	if err := store.CreateIdentity(ctx, identity, nil, nil); err != nil {
		if errors.Is(err, auth.ErrDuplicateAccount) {
			return nil
		}
		return seedLog.Error("Failed to create %s identity", err, role)
	}
	seedLog.Success("Created %s identity %s", role, email)
	return nil
}
