package timeouts

import (
	"context"
	"testing"
	"time"
)

func TestConfigure_IgnoresZero(t *testing.T) {
	defer Reset()

	Configure(Config{Short: 7 * time.Second})
	if Short() != 7*time.Second {
		t.Errorf("Short() = %v, want 7s", Short())
	}
	if Medium() != DefaultMedium {
		t.Errorf("Medium() = %v, want default %v", Medium(), DefaultMedium)
	}
}

func TestConfigureFromEnv(t *testing.T) {
	defer Reset()

	t.Setenv("MEMBERHUB_TIMEOUT_PING", "500ms")
	t.Setenv("MEMBERHUB_TIMEOUT_LONG", "not-a-duration")
	t.Setenv("MEMBERHUB_TIMEOUT_MEDIUM", "-3s")

	if n := ConfigureFromEnv(); n != 1 {
		t.Errorf("ConfigureFromEnv() = %d, want 1", n)
	}
	if Ping() != 500*time.Millisecond {
		t.Errorf("Ping() = %v, want 500ms", Ping())
	}
	if Long() != DefaultLong {
		t.Errorf("Long() = %v, want default", Long())
	}
	if Medium() != DefaultMedium {
		t.Errorf("Medium() = %v, want default", Medium())
	}
}

func TestWithTimeout_NilLogger(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, nil, "test")
	<-ctx.Done()
	cancel()
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("ctx.Err() = %v, want DeadlineExceeded", ctx.Err())
	}
}
