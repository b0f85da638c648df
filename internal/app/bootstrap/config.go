// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/memberhub/internal/app/system/auditlog"
	"github.com/dalemusser/memberhub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for MemberHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: MEMBERHUB_MONGO_URI, MEMBERHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "memberhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must match the authentication service)"},
	{Name: "session_name", Default: "memberhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime"},

	// Operator accounts
	{Name: "superadmin_email", Default: "", Desc: "Email of the identity promoted to super_controller on startup"},
	{Name: "break_glass_emails", Default: "", Desc: "Comma-separated emails elevated to admin authority (audited on every use)"},

	// Membership
	{Name: "membership_id_prefix", Default: "MH", Desc: "Prefix of issued membership ids"},
	{Name: "timezone", Default: "Asia/Kolkata", Desc: "Time zone for membership years and grant expiry dates"},

	// Audit logging settings
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log) or 'db'; privileged mutations are always stored"},
	{Name: "audit_log_public", Default: "all", Desc: "Public event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Public endpoints
	{Name: "verify_rate_limit", Default: 60, Desc: "Verification and registration requests per minute per client IP"},
	{Name: "verify_rate_burst", Default: 20, Desc: "Burst allowance for verify_rate_limit"},
	{Name: "trusted_proxies", Default: "", Desc: "Comma-separated proxy CIDRs or addresses whose X-Forwarded-For / X-Real-IP headers are honoured"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, MEMBERHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "MEMBERHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 30*24*time.Hour),

		SuperControllerEmail: strings.TrimSpace(appValues.String("superadmin_email")),
		BreakGlassEmails:     splitList(appValues.String("break_glass_emails")),

		MembershipPrefix: strings.TrimSpace(appValues.String("membership_id_prefix")),
		Timezone:         strings.TrimSpace(appValues.String("timezone")),

		AuditLogAdmin:  appValues.String("audit_log_admin"),
		AuditLogPublic: appValues.String("audit_log_public"),

		VerifyRatePerMinute: appValues.Int("verify_rate_limit"),
		VerifyRateBurst:     appValues.Int("verify_rate_burst"),
		TrustedProxies:      splitList(appValues.String("trusted_proxies")),
	}

	if len(appCfg.BreakGlassEmails) > 0 {
		logger.Warn("break-glass accounts configured", zap.Int("count", len(appCfg.BreakGlassEmails)))
	}
	return coreCfg, appCfg, nil
}

// splitList splits a comma-separated setting, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The MongoDB URI is checked before any connection attempt.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MembershipPrefix == "" {
		return fmt.Errorf("membership_id_prefix must not be empty")
	}
	if _, err := time.LoadLocation(appCfg.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", appCfg.Timezone, err)
	}
	if !auditlog.AdminModeAllowed(appCfg.AuditLogAdmin) {
		return fmt.Errorf("audit_log_admin must be all or db (got %q)", appCfg.AuditLogAdmin)
	}
	switch appCfg.AuditLogPublic {
	case auditlog.ModeAll, auditlog.ModeDB, auditlog.ModeLog, auditlog.ModeOff:
	default:
		return fmt.Errorf("audit_log_public must be all, db, log or off (got %q)", appCfg.AuditLogPublic)
	}
	if appCfg.VerifyRatePerMinute <= 0 || appCfg.VerifyRateBurst <= 0 {
		return fmt.Errorf("verify_rate_limit and verify_rate_burst must be positive")
	}
	if _, err := ratelimit.ParseProxies(appCfg.TrustedProxies); err != nil {
		return fmt.Errorf("invalid trusted_proxies: %w", err)
	}
	if coreCfg != nil && coreCfg.Env == "prod" && strings.HasPrefix(appCfg.SessionKey, "dev-only") {
		return fmt.Errorf("session_key must be set in production")
	}
	return nil
}
