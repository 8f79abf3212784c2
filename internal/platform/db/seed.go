package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"ets/internal/domain/employee"
	"ets/internal/platform/config"
)

// Seed creates the configured admin account if it does not exist yet.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	email := strings.TrimSpace(cfg.SeedAdminEmail)
	if email == "" || cfg.SeedAdminPassword == "" {
		log.Info().Msg("admin seed skipped: SEED_ADMIN_EMAIL or SEED_ADMIN_PASSWORD not set")
		return nil
	}

	svc := employee.NewService(employee.NewStore(pool), cfg.PasswordResetTTL)
	admin, created, err := svc.EnsureAdmin(ctx, cfg.SeedAdminName, email, cfg.SeedAdminPassword)
	if err != nil {
		return err
	}
	if created {
		log.Info().Str("employee_id", admin.ID).Str("email", admin.Email).Msg("admin account seeded")
	}
	return nil
}
