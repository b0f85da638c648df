// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	applicationsfeature "github.com/dalemusser/memberhub/internal/app/features/applications"
	applyfeature "github.com/dalemusser/memberhub/internal/app/features/apply"
	auditlogfeature "github.com/dalemusser/memberhub/internal/app/features/auditlog"
	errorsfeature "github.com/dalemusser/memberhub/internal/app/features/errors"
	eventmanagersfeature "github.com/dalemusser/memberhub/internal/app/features/eventmanagers"
	healthfeature "github.com/dalemusser/memberhub/internal/app/features/health"
	membersfeature "github.com/dalemusser/memberhub/internal/app/features/members"
	profilefeature "github.com/dalemusser/memberhub/internal/app/features/profile"
	registerfeature "github.com/dalemusser/memberhub/internal/app/features/register"
	verifyfeature "github.com/dalemusser/memberhub/internal/app/features/verify"
	"github.com/dalemusser/memberhub/internal/app/services/actors"
	"github.com/dalemusser/memberhub/internal/app/services/delegation"
	"github.com/dalemusser/memberhub/internal/app/services/registry"
	"github.com/dalemusser/memberhub/internal/app/services/verification"
	applicationstore "github.com/dalemusser/memberhub/internal/app/store/applications"
	"github.com/dalemusser/memberhub/internal/app/store/audit"
	counterstore "github.com/dalemusser/memberhub/internal/app/store/counters"
	delegatestore "github.com/dalemusser/memberhub/internal/app/store/delegates"
	eventformstore "github.com/dalemusser/memberhub/internal/app/store/eventforms"
	rolestore "github.com/dalemusser/memberhub/internal/app/store/roles"
	userstore "github.com/dalemusser/memberhub/internal/app/store/users"
	"github.com/dalemusser/memberhub/internal/app/system/actorctx"
	"github.com/dalemusser/memberhub/internal/app/system/auditlog"
	"github.com/dalemusser/memberhub/internal/app/system/auth"
	"github.com/dalemusser/memberhub/internal/app/system/metrics"
	"github.com/dalemusser/memberhub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. Services are wired over the Mongo stores
// here; features see only the narrow interfaces they declare.
//
// Public routes (/verify, /apply, /register) are rate limited per client IP.
// Everything else requires a signed-in session and a loaded actor.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	loc, err := time.LoadLocation(appCfg.Timezone)
	if err != nil {
		return nil, err
	}

	db := deps.MongoDatabase
	var (
		identities   = userstore.New(db)
		roles        = rolestore.New(db)
		applications = applicationstore.New(db)
		forms        = eventformstore.New(db)
		delegates    = delegatestore.New(db)
		events       = audit.New(db)
	)

	al := auditlog.New(events, logger, auditConfig(appCfg))
	loader := actors.NewLoader(identities, roles, appCfg.BreakGlassEmails, al, logger)
	reg := registry.New(identities, roles, applications, counterstore.New(db), al, logger,
		registry.Options{MembershipPrefix: appCfg.MembershipPrefix, Location: loc})
	del := delegation.New(identities, roles, forms, delegates, al, logger,
		delegation.Options{Location: loc})
	ver := verification.New(identities, roles, applications, delegates, logger, nil)

	limiter := ratelimit.New(float64(appCfg.VerifyRatePerMinute)/60, appCfg.VerifyRateBurst, 10*time.Minute)
	if err := limiter.TrustProxies(appCfg.TrustedProxies); err != nil {
		return nil, err
	}
	requireActor := actorctx.Middleware(loader, logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", metrics.Handler())

	// Public endpoints
	r.Mount("/verify", verifyfeature.Routes(verifyfeature.NewHandler(ver, logger), limiter))
	r.Mount("/apply", applyfeature.Routes(applyfeature.NewHandler(reg, logger), limiter))
	r.Mount("/register", registerfeature.Routes(registerfeature.NewHandler(del, logger), limiter))

	// Signed-in areas
	r.Mount("/members", membersfeature.Routes(membersfeature.NewHandler(reg, logger), requireActor))
	r.Mount("/applications", applicationsfeature.Routes(applicationsfeature.NewHandler(reg, logger), requireActor))
	r.Mount("/event-managers", eventmanagersfeature.Routes(eventmanagersfeature.NewHandler(del, logger), requireActor))
	r.Mount("/profile", profilefeature.Routes(profilefeature.NewHandler(reg, logger), requireActor))
	r.Mount("/audit", auditlogfeature.Routes(auditlogfeature.NewHandler(events, logger), requireActor))

	return r, nil
}
