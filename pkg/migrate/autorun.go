package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/orderdesk/pkg/config"
	"github.com/angelmondragon/orderdesk/pkg/db"
	"github.com/angelmondragon/orderdesk/pkg/logger"
)

// MaybeRunDev applies pending migrations on boot when running in dev with
// ORDERDESK_AUTO_MIGRATE enabled. Mongo deployments have no schema to migrate.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.App.AutoMigrate || client == nil {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": DefaultDir, "driver": client.Driver()})
	logg.Info(ctx, "running goose migrations (dev auto-run)")

	if err := Run(ctx, Dialect(client.Driver()), sqlDB, DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}
