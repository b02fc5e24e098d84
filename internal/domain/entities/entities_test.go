package entities

import (
	"errors"
	"fmt"
	"testing"
)

func TestSettings_ClampForcesRanges(t *testing.T) {
	tests := []struct {
		name string
		in   Settings
		want Settings
	}{
		{
			name: "all below minimum",
			in:   Settings{ChunkSize: 10, ChunkOverlap: -5, TopK: 0, MinScore: -1, Temperature: -0.5, ContextWindow: -1},
			want: Settings{ChunkSize: 64, ChunkOverlap: 0, TopK: 1, MinScore: 0, Temperature: 0, ContextWindow: 0},
		},
		{
			name: "all above maximum",
			in:   Settings{ChunkSize: 9999, ChunkOverlap: 9999, TopK: 100, MinScore: 2, Temperature: 5, ContextWindow: 100},
			want: Settings{ChunkSize: 2048, ChunkOverlap: 512, TopK: 20, MinScore: 1, Temperature: 2, ContextWindow: 20},
		},
		{
			name: "valid values untouched",
			in:   Settings{ChunkSize: 512, ChunkOverlap: 64, TopK: 4, MinScore: 0.3, Temperature: 0.7, ContextWindow: 6},
			want: Settings{ChunkSize: 512, ChunkOverlap: 64, TopK: 4, MinScore: 0.3, Temperature: 0.7, ContextWindow: 6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.Clamp()
			if tt.in != tt.want {
				t.Errorf("got %+v, want %+v", tt.in, tt.want)
			}
		})
	}
}

func TestSettings_ClampOverlapBelowChunkSize(t *testing.T) {
	s := Settings{ChunkSize: 100, ChunkOverlap: 200, TopK: 4, MinScore: 0.3}
	s.Clamp()
	if s.ChunkOverlap >= s.ChunkSize {
		t.Errorf("overlap %d must stay below chunk size %d", s.ChunkOverlap, s.ChunkSize)
	}
}

func TestPresetFor_KnownAndUnknown(t *testing.T) {
	legal := PresetFor("legal")
	if legal.Settings.Temperature != 0.1 {
		t.Errorf("unexpected legal preset temperature: %v", legal.Settings.Temperature)
	}

	fallback := PresetFor("nonsense")
	def := PresetFor("default")
	if fallback.SystemPrompt != def.SystemPrompt {
		t.Error("unknown preset should fall back to default")
	}
}

func TestPresets_AllClampClean(t *testing.T) {
	for _, name := range PresetNames() {
		p := PresetFor(name)
		clamped := p.Settings
		clamped.Clamp()
		if clamped != p.Settings {
			t.Errorf("preset %q has out-of-range settings: %+v", name, p.Settings)
		}
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(DomainError("empty")); got != ErrDomain {
		t.Errorf("got %q, want domain", got)
	}
	if got := KindOf(fmt.Errorf("wrapped: %w", ConfigError("nope"))); got != ErrConfig {
		t.Errorf("got %q, want config through wrapping", got)
	}
	if got := KindOf(errors.New("plain")); got != "" {
		t.Errorf("got %q, want empty for plain errors", got)
	}
}

func TestConnectionError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := ConnectionError("model server unreachable", cause)
	if !errors.Is(err, cause) {
		t.Error("connection error should wrap its cause")
	}
	if err.Kind != ErrConnection {
		t.Errorf("unexpected kind %q", err.Kind)
	}
}

func TestProtocolError_CarriesStatus(t *testing.T) {
	err := ProtocolError(404, "model not found")
	if err.Status != 404 {
		t.Errorf("got status %d, want 404", err.Status)
	}
}
