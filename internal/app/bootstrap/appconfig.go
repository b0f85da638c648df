// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging level, request limits).
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session cookie written by the authentication service
	SessionKey    string // Secret key for verifying session cookies
	SessionName   string // Cookie name (default: memberhub-session)
	SessionDomain string // Cookie domain (blank means current host)
	SessionMaxAge time.Duration

	// Operator accounts
	SuperControllerEmail string   // Identity promoted to super_controller on startup
	BreakGlassEmails     []string // Identities elevated to admin authority on every request

	// Membership
	MembershipPrefix string // First segment of membership ids, e.g. "MH"
	Timezone         string // IANA zone deciding membership years and grant expiry dates

	// Audit logging: "all" (db+log), "db", "log" or "off"; admin allows "all" or "db"
	AuditLogAdmin  string
	AuditLogPublic string

	// Public endpoint rate limits, per client IP
	VerifyRatePerMinute int
	VerifyRateBurst     int
	TrustedProxies      []string // CIDRs or addresses whose forwarding headers are honoured
}
