package main

import (
	"fmt"
	"log/slog"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"cms-panel/internal/logging"
	"cms-panel/internal/models"
	"cms-panel/internal/services"
)

func newMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the database schema and seed the default admin, then exit",
		RunE:  migrateCommand,
	}

	cobraflags.RegisterMap(migrateCmd, commonFlags)
	return migrateCmd
}

func migrateCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Log)
	slog.SetDefault(logger)

	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	gw := models.NewGateway(cfg, logger)
	defer gw.Close()

	auth := services.NewAuthService(gw, cfg)
	gw.OnInit(auth.CreateDefaultUser)

	if err := gw.EnsureInitialized(cmd.Context()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Info("database ready", "type", cfg.Database.Type)
	return nil
}
