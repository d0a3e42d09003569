package logging

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	prev := logger
	SetLogger(zap.New(core))
	t.Cleanup(func() { logger = prev })
	return logs
}

func TestInitializeSilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("logger without a level should be silent")
	}
}

func TestInitializeLevels(t *testing.T) {
	tests := []struct {
		level   string
		enabled zapcore.Level
		silent  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel, zapcore.InvalidLevel},
		{"info", zapcore.InfoLevel, zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel, zapcore.InfoLevel},
		{"error", zapcore.ErrorLevel, zapcore.WarnLevel},
		{"verbose", zapcore.InfoLevel, zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if err := Initialize(tt.level); err != nil {
				t.Fatalf("Initialize() error = %v", err)
			}
			t.Cleanup(func() { logger = nil })

			core := GetLogger().Core()
			if !core.Enabled(tt.enabled) {
				t.Errorf("%s should be enabled", tt.enabled)
			}
			if tt.silent != zapcore.InvalidLevel && core.Enabled(tt.silent) {
				t.Errorf("%s should be disabled", tt.silent)
			}
		})
	}
}

func TestInitializeFromEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "warn")
	if err := InitializeFromEnv(); err != nil {
		t.Fatalf("InitializeFromEnv() error = %v", err)
	}
	t.Cleanup(func() { logger = nil })

	if GetLogger().Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn")
	}
}

func TestLogCommand(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	LogCommand("encode", "rev4_switch", 5, 2, "on")

	entries := logs.FilterMessage("Switch command").All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["direction"] != "encode" || fields["id"] != int64(5) || fields["unit"] != int64(2) || fields["state"] != "on" {
		t.Errorf("fields = %v", fields)
	}
}

func TestLogPulses(t *testing.T) {
	t.Run("skipped above debug", func(t *testing.T) {
		logs := observe(t, zapcore.InfoLevel)
		LogPulses("train", []int{264, 792})
		if logs.Len() != 0 {
			t.Errorf("entries = %d, want 0", logs.Len())
		}
	})

	t.Run("truncated at debug", func(t *testing.T) {
		logs := observe(t, zapcore.DebugLevel)
		pulses := make([]int, maxLoggedPulses+10)
		for i := range pulses {
			pulses[i] = 264
		}
		LogPulses("train", pulses)

		entries := logs.All()
		if len(entries) != 1 {
			t.Fatalf("entries = %d, want 1", len(entries))
		}
		fields := entries[0].ContextMap()
		if fields["length"] != int64(len(pulses)) {
			t.Errorf("length = %v", fields["length"])
		}
		dump, _ := fields["pulses"].(string)
		if !strings.HasSuffix(dump, " ...") {
			t.Errorf("pulses should be truncated, got %q", dump)
		}
	})
}

func TestLogWebSocketMessageContent(t *testing.T) {
	tests := []struct {
		name        string
		level       zapcore.Level
		wantContent bool
	}{
		{"info omits content", zapcore.InfoLevel, false},
		{"debug includes content", zapcore.DebugLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := observe(t, tt.level)
			LogWebSocketMessage("10.0.0.2:5555", "received", "send", []byte(`{"action":"send"}`))

			entries := logs.FilterMessage("WebSocket message").All()
			if len(entries) != 1 {
				t.Fatalf("entries = %d, want 1", len(entries))
			}
			_, ok := entries[0].ContextMap()["content"]
			if ok != tt.wantContent {
				t.Errorf("content present = %v, want %v", ok, tt.wantContent)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate([]byte("abcdef"), 3); string(got) != "abc" {
		t.Errorf("truncate() = %q", got)
	}
	if got := truncate([]byte("ab"), 3); string(got) != "ab" {
		t.Errorf("truncate() = %q", got)
	}
}
