package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	appModels "github.com/yigit/alumnitrack/internal/app/models"
	appServices "github.com/yigit/alumnitrack/internal/app/services"
	"github.com/yigit/alumnitrack/internal/config"
)

// CreateDefaultAdmin creates the configured super admin when no account owns its email or employee ID
func CreateDefaultAdmin(ctx context.Context, cfg *config.Config, authService appServices.AuthService, lgr zerolog.Logger) error {
	if !cfg.Seed.Enabled {
		lgr.Debug().Msg("Default admin seeding disabled")
		return nil
	}

	email := strings.TrimSpace(cfg.Seed.Email)
	if email == "" || cfg.Seed.Password == "" {
		lgr.Warn().Msg("Seed email or password not configured, skipping default admin")
		return nil
	}

	admin := &appModels.Admin{
		Email:      email,
		FullName:   cfg.Seed.FullName,
		EmployeeID: cfg.Seed.EmployeeID,
	}

	lgr.Info().Str("email", email).Msg("Checking/Creating default super admin...")
	created, err := authService.EnsureSuperAdmin(ctx, admin, cfg.Seed.Password)
	if err != nil {
		lgr.Error().Err(err).Msg("Error creating default super admin")
		return fmt.Errorf("failed to seed super admin: %w", err)
	}
	if created {
		lgr.Info().Int64("adminID", admin.ID).Str("employeeID", admin.EmployeeID).Msg("Default super admin created")
	} else {
		lgr.Info().Msg("Default super admin already present")
	}
	return nil
}
