package ingest

import (
	"testing"
	"time"
)

// TestConfigValidate covers the configuration invariants.
func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{name: "valid defaults", config: DefaultConfig("ws://localhost:9100/firehose"), wantErr: nil},
		{name: "empty url", config: DefaultConfig(""), wantErr: ErrEmptyURL},
		{
			name:    "zero base delay",
			config:  Config{URL: "ws://x", MaxDelay: time.Second},
			wantErr: ErrInvalidDelay,
		},
		{
			name:    "max below base",
			config:  Config{URL: "ws://x", BaseDelay: time.Second, MaxDelay: time.Millisecond},
			wantErr: ErrInvalidMaxDelay,
		},
		{
			name:    "jitter above one",
			config:  Config{URL: "ws://x", BaseDelay: time.Millisecond, MaxDelay: time.Second, JitterFactor: 1.5},
			wantErr: ErrInvalidJitter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestNewClientRejectsInvalidConfig verifies construction validates.
func TestNewClientRejectsInvalidConfig(t *testing.T) {
	if _, err := NewClient(Config{}, nil, nil); err == nil {
		t.Error("expected construction to fail for empty config")
	}
}

// TestComputeBackoffBounds verifies backoff grows and respects the cap
// with jitter applied.
func TestComputeBackoffBounds(t *testing.T) {
	client, err := NewClient(DefaultConfig("ws://localhost:9100/firehose"), nil, nil)
	if err != nil {
		t.Fatalf("failed to construct client: %v", err)
	}

	maxWithJitter := time.Duration(float64(DefaultMaxDelay) * (1 + DefaultJitterFactor/2))
	for attempt := int64(0); attempt < 40; attempt++ {
		client.reconnectCount = attempt
		delay := client.computeBackoff()
		if delay <= 0 {
			t.Fatalf("attempt %d: non-positive delay %v", attempt, delay)
		}
		if delay > maxWithJitter {
			t.Fatalf("attempt %d: delay %v exceeds cap %v", attempt, delay, maxWithJitter)
		}
	}
}
