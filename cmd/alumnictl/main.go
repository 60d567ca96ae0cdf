// Command alumnictl runs maintenance tasks against the alumni database
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	appMigrations "github.com/yigit/alumnitrack/internal/app/migrations"
	appModels "github.com/yigit/alumnitrack/internal/app/models"
	"github.com/yigit/alumnitrack/internal/bootstrap"
	"github.com/yigit/alumnitrack/internal/config"
	"github.com/yigit/alumnitrack/internal/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "alumnictl",
		Usage: "maintenance tasks for the alumni tracker",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to config.yaml",
				EnvVars: []string{config.ConfigPathEnv},
				Value:   config.DefaultConfigPath,
			},
		},
		Commands: []*cli.Command{
			migrateCommand(),
			cleanupCommand(),
			createAdminCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("alumnictl failed")
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	logger.Configure(logger.Config{Level: logger.ParseLevel(cfg.Logging.Level), Pretty: true})
	return cfg, nil
}

func migrateCommand() *cli.Command {
	migrator := func(c *cli.Context) (*appMigrations.Migrator, error) {
		cfg, err := loadConfig(c)
		if err != nil {
			return nil, err
		}
		return appMigrations.NewMigrator(cfg.GetMigrateConnectionString(), logger.Component("migrate")), nil
	}

	return &cli.Command{
		Name:  "migrate",
		Usage: "manage the database schema",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply pending migrations",
				Action: func(c *cli.Context) error {
					m, err := migrator(c)
					if err != nil {
						return err
					}
					return m.Up()
				},
			},
			{
				Name:  "down",
				Usage: "roll back migrations",
				Flags: []cli.Flag{&cli.IntFlag{Name: "steps", Value: 1}},
				Action: func(c *cli.Context) error {
					m, err := migrator(c)
					if err != nil {
						return err
					}
					return m.Down(c.Int("steps"))
				},
			},
			{
				Name:  "version",
				Usage: "print the schema version",
				Action: func(c *cli.Context) error {
					m, err := migrator(c)
					if err != nil {
						return err
					}
					version, dirty, err := m.Version()
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "version %d dirty=%t\n", version, dirty)
					return nil
				},
			},
		},
	}
}

// withDependencies connects to the database, runs fn with an in-memory audit queue
// and flushes the queue before returning
func withDependencies(c *cli.Context, fn func(ctx context.Context, deps *bootstrap.Dependencies) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg.Audit.Backend = "memory"
	lgr := logger.Component("alumnictl")

	database, err := bootstrap.SetupDatabase(cfg, lgr)
	if err != nil {
		return err
	}
	defer database.Close()

	auditQueue, _, err := bootstrap.SetupAuditQueue(cfg, lgr)
	if err != nil {
		return err
	}
	deps, err := bootstrap.BuildDependencies(cfg, database, auditQueue, lgr)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, 10*time.Minute)
	defer cancel()
	if err := deps.AuditWorker.Start(ctx); err != nil {
		return err
	}
	defer deps.AuditWorker.Stop()

	return fn(ctx, deps)
}

func cleanupCommand() *cli.Command {
	return &cli.Command{
		Name:  "cleanup",
		Usage: "delete archived records past retention and expired refresh tokens",
		Action: func(c *cli.Context) error {
			return withDependencies(c, func(ctx context.Context, deps *bootstrap.Dependencies) error {
				actor := appModels.Actor{EmployeeID: "alumnictl", Role: appModels.RoleSuperAdmin, UserAgent: "alumnictl"}
				result := deps.LifecycleService.Cleanup(ctx, actor)
				fmt.Fprintf(c.App.Writer, "%s (deleted=%d failed=%d)\n", result.Message, result.Deleted, result.Failed)

				removed, err := deps.Repos.Token.CleanupExpiredTokens(ctx, time.Now().UTC())
				if err != nil {
					return fmt.Errorf("failed to clean up refresh tokens: %w", err)
				}
				fmt.Fprintf(c.App.Writer, "removed %d expired refresh tokens\n", removed)

				if !result.Success {
					return cli.Exit(result.Message, 1)
				}
				return nil
			})
		},
	}
}

func createAdminCommand() *cli.Command {
	return &cli.Command{
		Name:  "create-admin",
		Usage: "create a super admin account unless the email or employee ID is taken",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "employee-id", Required: true},
			&cli.StringFlag{Name: "name", Value: "System Administrator"},
			&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"ALUMNICTL_ADMIN_PASSWORD"}},
		},
		Action: func(c *cli.Context) error {
			return withDependencies(c, func(ctx context.Context, deps *bootstrap.Dependencies) error {
				admin := &appModels.Admin{
					Email:      c.String("email"),
					EmployeeID: c.String("employee-id"),
					FullName:   c.String("name"),
				}
				created, err := deps.AuthService.EnsureSuperAdmin(ctx, admin, c.String("password"))
				if err != nil {
					return err
				}
				if !created {
					fmt.Fprintln(c.App.Writer, "an account with that email or employee ID already exists")
					return nil
				}
				fmt.Fprintf(c.App.Writer, "created super admin %d (%s)\n", admin.ID, admin.EmployeeID)
				return nil
			})
		},
	}
}
