// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"

	"github.com/dalemusser/memberhub/internal/app/store/audit"
	"github.com/dalemusser/memberhub/internal/app/system/metrics"
	"go.uber.org/zap"
)

// Modes for each category: "all" (MongoDB + zap), "db" (MongoDB only),
// "log" (zap only), "off" (disabled). Only public submissions may use "log"
// or "off"; privileged and security events are always stored.
const (
	ModeAll = "all"
	ModeDB  = "db"
	ModeLog = "log"
	ModeOff = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Admin controls logging for privileged mutations (approvals, roles,
	// cards, consent, delegation): "all" or "db". Any other value is treated
	// as "all". Security events always use "all".
	Admin string
	// Public controls logging for public submissions (applications,
	// delegate registrations).
	Public string
}

// Sink persists audit events. *audit.Store satisfies it.
type Sink interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via Sink) and structured logs (via zap).
type Logger struct {
	store  Sink
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store Sink, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}

	if event.ActorID != "" {
		fields = append(fields, zap.String("actor_id", event.ActorID))
	}
	if event.TargetID != "" {
		fields = append(fields, zap.String("target_type", event.TargetType), zap.String("target_id", event.TargetID))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success && event.Category != audit.CategorySecurity {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

func (l *Logger) modeFor(category string) string {
	switch category {
	case audit.CategoryAdmin:
		if l.config.Admin == ModeDB {
			return ModeDB
		}
		return ModeAll
	case audit.CategoryPublic:
		if l.config.Public != "" {
			return l.config.Public
		}
	}
	return ModeAll
}

// AdminModeAllowed reports whether mode may be configured for privileged
// mutations.
func AdminModeAllowed(mode string) bool {
	return mode == ModeAll || mode == ModeDB
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// A failed store write never propagates to the caller; it is reported to
// zap at error level and counted.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := l.modeFor(event.Category)
	if setting == ModeOff {
		return
	}

	if setting == ModeAll || setting == ModeLog {
		l.logToZap(event)
	}

	if (setting == ModeAll || setting == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			metrics.AuditWriteFailuresTotal.WithLabelValues(event.EventType).Inc()
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
				zap.String("actor_id", event.ActorID),
				zap.String("target_id", event.TargetID),
			)
		}
	}
}

// --- Privileged mutations ---

// Admin logs a successful privileged mutation by actorID on a target.
func (l *Logger) Admin(ctx context.Context, eventType, actorID, targetType, targetID string, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAdmin,
		EventType:  eventType,
		ActorID:    actorID,
		TargetType: targetType,
		TargetID:   targetID,
		Success:    true,
		Details:    details,
	})
}

// --- Public submissions ---

// Public logs an unauthenticated submission.
func (l *Logger) Public(ctx context.Context, eventType, targetType, targetID string, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryPublic,
		EventType:  eventType,
		TargetType: targetType,
		TargetID:   targetID,
		Success:    true,
		Details:    details,
	})
}

// --- Security ---

// BreakGlassUsed records an actor elevated through the break-glass list.
func (l *Logger) BreakGlassUsed(ctx context.Context, actorID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategorySecurity,
		EventType: audit.EventBreakGlassUsed,
		ActorID:   actorID,
		Success:   true,
		Details: map[string]string{
			"email": email,
		},
	})
}

// Denied records an authorization denial for a privileged operation.
func (l *Logger) Denied(ctx context.Context, operation, actorID, targetType, targetID string) {
	metrics.AuthzDenialsTotal.WithLabelValues(operation).Inc()
	l.Log(ctx, audit.Event{
		Category:      audit.CategorySecurity,
		EventType:     audit.EventAuthorizationDenied,
		ActorID:       actorID,
		TargetType:    targetType,
		TargetID:      targetID,
		Success:       false,
		FailureReason: "forbidden",
		Details: map[string]string{
			"operation": operation,
		},
	})
}

// SuperControllerBootstrapped records the startup promotion of the
// configured super controller.
func (l *Logger) SuperControllerBootstrapped(ctx context.Context, userID, email string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategorySecurity,
		EventType:  audit.EventSuperControllerBoot,
		TargetType: audit.TargetRole,
		TargetID:   userID,
		Success:    true,
		Details: map[string]string{
			"email": email,
		},
	})
}
