package auditlog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dalemusser/memberhub/internal/app/store/audit"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSink struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

func (f *fakeSink) Log(_ context.Context, e audit.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}

func TestLog_NilLoggerIsNoop(t *testing.T) {
	var l *Logger
	l.Admin(context.Background(), audit.EventCardIssued, "a", audit.TargetIdentity, "u", nil)
}

func TestLog_Modes(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		log       func(*Logger)
		wantStore int
		wantZap   int
	}{
		{"admin all", Config{Admin: ModeAll}, logAdmin, 1, 1},
		{"admin default", Config{}, logAdmin, 1, 1},
		{"admin db", Config{Admin: ModeDB}, logAdmin, 1, 0},
		{"admin log is stored", Config{Admin: ModeLog}, logAdmin, 1, 1},
		{"admin off is stored", Config{Admin: ModeOff}, logAdmin, 1, 1},
		{"public db", Config{Public: ModeDB}, logPublic, 1, 0},
		{"public log", Config{Public: ModeLog}, logPublic, 0, 1},
		{"public off", Config{Public: ModeOff}, logPublic, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			sink := &fakeSink{}
			tt.log(New(sink, zap.New(core), tt.config))

			if len(sink.events) != tt.wantStore {
				t.Errorf("stored %d events, want %d", len(sink.events), tt.wantStore)
			}
			if logs.Len() != tt.wantZap {
				t.Errorf("zap got %d entries, want %d", logs.Len(), tt.wantZap)
			}
		})
	}
}

func logAdmin(l *Logger) {
	l.Admin(context.Background(), audit.EventRoleAssigned, "a", audit.TargetRole, "u", map[string]string{"role": "member"})
}

func logPublic(l *Logger) {
	l.Public(context.Background(), audit.EventApplicationSubmitted, audit.TargetApplication, "app1", nil)
}

func TestLog_SecurityNeverSilenced(t *testing.T) {
	for _, mode := range []string{ModeDB, ModeLog, ModeOff} {
		t.Run(mode, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			sink := &fakeSink{}
			l := New(sink, zap.New(core), Config{Admin: mode, Public: ModeOff})

			l.BreakGlassUsed(context.Background(), "u1", "ops@example.org")
			l.Denied(context.Background(), "assign_role", "u2", audit.TargetRole, "u3")

			if len(sink.events) != 2 {
				t.Errorf("stored %d security events, want 2", len(sink.events))
			}
			if logs.FilterField(zap.String("event_type", audit.EventBreakGlassUsed)).Len() != 1 {
				t.Errorf("expected break-glass use in zap log, got %d entries", logs.Len())
			}
			if logs.All()[0].Level != zapcore.WarnLevel {
				t.Errorf("security events log at warn, got %v", logs.All()[0].Level)
			}
		})
	}
}

func TestAdminModeAllowed(t *testing.T) {
	for mode, want := range map[string]bool{ModeAll: true, ModeDB: true, ModeLog: false, ModeOff: false, "": false} {
		if got := AdminModeAllowed(mode); got != want {
			t.Errorf("AdminModeAllowed(%q) = %v, want %v", mode, got, want)
		}
	}
}

func TestLog_StoreFailureDoesNotPropagate(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	sink := &fakeSink{err: errors.New("mongo down")}
	l := New(sink, zap.New(core), Config{Admin: ModeDB})

	l.Admin(context.Background(), audit.EventCardRevoked, "a", audit.TargetIdentity, "u", nil)

	if logs.FilterMessage("failed to store audit event").Len() != 1 {
		t.Errorf("expected store failure at error level, got %d entries", logs.Len())
	}
}

func TestDenied_RecordsOperation(t *testing.T) {
	sink := &fakeSink{}
	l := New(sink, nil, Config{Admin: ModeAll})

	l.Denied(context.Background(), "assign_role", "a", audit.TargetRole, "u")

	if len(sink.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(sink.events))
	}
	e := sink.events[0]
	if e.EventType != audit.EventAuthorizationDenied || e.Success || e.Details["operation"] != "assign_role" {
		t.Errorf("unexpected event: %+v", e)
	}
}
