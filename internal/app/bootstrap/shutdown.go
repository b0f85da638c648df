// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown disconnects the Mongo client. The disconnect is bounded by the
// long timeout even when ctx has no deadline, and still runs when ctx is
// already cancelled so pooled connections are released.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.MongoClient == nil {
		return nil
	}
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}
	dctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	logger.Info("disconnecting MongoDB client", zap.String("database", appCfg.MongoDatabase))
	if err := deps.MongoClient.Disconnect(dctx); err != nil {
		logger.Error("MongoDB disconnect failed", zap.Error(err))
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}
