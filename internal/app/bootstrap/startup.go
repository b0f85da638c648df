// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/memberhub/internal/app/store/audit"
	rolestore "github.com/dalemusser/memberhub/internal/app/store/roles"
	userstore "github.com/dalemusser/memberhub/internal/app/store/users"
	"github.com/dalemusser/memberhub/internal/app/system/auditlog"
	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/memberhub/internal/domain/errs"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts overridden from environment", timeouts.Fields()...)
	}

	al := auditlog.New(audit.New(deps.MongoDatabase), logger, auditConfig(appCfg))
	return ensureSuperController(ctx,
		userstore.New(deps.MongoDatabase),
		rolestore.New(deps.MongoDatabase),
		al, appCfg.SuperControllerEmail, logger)
}

func auditConfig(appCfg AppConfig) auditlog.Config {
	return auditlog.Config{Admin: appCfg.AuditLogAdmin, Public: appCfg.AuditLogPublic}
}

type superIdentities interface {
	GetByEmail(ctx context.Context, email string) (*models.Identity, error)
}

type superRoles interface {
	Get(ctx context.Context, userID string) (models.RoleRecord, error)
	CompareAndSwap(ctx context.Context, rec models.RoleRecord) (models.RoleRecord, error)
}

// ensureSuperController promotes the identity with the configured email to
// super_controller. Identities are created by membership approval, so an
// unknown email is logged and skipped; the next start after approval
// promotes it.
func ensureSuperController(ctx context.Context, ids superIdentities, roles superRoles, al *auditlog.Logger, email string, logger *zap.Logger) error {
	if email == "" {
		return nil
	}
	u, err := ids.GetByEmail(ctx, email)
	if errors.Is(err, errs.ErrNotFound) {
		logger.Warn("superadmin_email has no identity yet; skipping promotion", zap.String("email", email))
		return nil
	}
	if err != nil {
		return fmt.Errorf("ensure super controller: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		rec, err := roles.Get(ctx, u.ID)
		if err != nil {
			return fmt.Errorf("ensure super controller: %w", err)
		}
		if rec.Role == string(authz.RoleSuperController) {
			return nil
		}
		_, err = roles.CompareAndSwap(ctx, models.RoleRecord{
			UserID:    u.ID,
			Role:      string(authz.RoleSuperController),
			Version:   rec.Version,
			UpdatedBy: "system",
		})
		if errors.Is(err, errs.ErrConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("ensure super controller: %w", err)
		}
		logger.Info("super controller bootstrapped", zap.String("user_id", u.ID), zap.String("from_role", rec.Role))
		al.SuperControllerBootstrapped(ctx, u.ID, email)
		return nil
	}
	return fmt.Errorf("ensure super controller: %w", errs.ErrConflict)
}
