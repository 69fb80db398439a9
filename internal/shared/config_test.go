package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Convert.Bitrate != "320k" {
			t.Errorf("expected bitrate 320k, got %s", config.Convert.Bitrate)
		}

		if config.Convert.RestructureFolder != "RS" {
			t.Errorf("expected restructure folder RS, got %s", config.Convert.RestructureFolder)
		}

		if config.Tools.FFmpeg != "ffmpeg" || config.Tools.FFprobe != "ffprobe" {
			t.Errorf("unexpected tool names %q %q", config.Tools.FFmpeg, config.Tools.FFprobe)
		}

		if config.Tools.TagTimeout.Duration != 30*time.Second {
			t.Errorf("expected tag timeout 30s, got %v", config.Tools.TagTimeout.Duration)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("embedded config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "nested", "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Convert.Bitrate != DefaultConfig().Convert.Bitrate {
			t.Errorf("created config bitrate doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		t.Run("overrides and keeps defaults", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			testConfig := `[convert]
bitrate = "192kbps"
threads = 3

[tools]
ffmpeg = "/opt/ffmpeg/bin/ffmpeg"
tag_timeout = "5s"
`
			if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}

			config, err := LoadConfig(configPath)
			if err != nil {
				t.Fatalf("failed to load config: %v", err)
			}

			if config.Convert.Bitrate != "192k" {
				t.Errorf("expected normalized bitrate 192k, got %s", config.Convert.Bitrate)
			}
			if config.Convert.Threads != 3 {
				t.Errorf("expected 3 threads, got %d", config.Convert.Threads)
			}
			if config.Tools.FFmpeg != "/opt/ffmpeg/bin/ffmpeg" {
				t.Errorf("expected custom ffmpeg, got %s", config.Tools.FFmpeg)
			}
			if config.Tools.FFprobe != "ffprobe" {
				t.Errorf("expected default ffprobe to survive, got %s", config.Tools.FFprobe)
			}
			if config.Tools.TagTimeout.Duration != 5*time.Second {
				t.Errorf("expected 5s tag timeout, got %v", config.Tools.TagTimeout.Duration)
			}
		})

		t.Run("rejects invalid values", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(configPath, []byte("[convert]\nthreads = -2\n"), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}

			_, err := LoadConfig(configPath)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})

		t.Run("missing file", func(t *testing.T) {
			if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
				t.Error("expected error for missing file")
			}
		})
	})
}

func TestNormalizeBitrate(t *testing.T) {
	tc := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "320", want: "320k"},
		{in: "320k", want: "320k"},
		{in: "320kbps", want: "320k"},
		{in: " 256K ", want: "256k"},
		{in: "0128k", want: "128k"},
		{in: "0", wantErr: true},
		{in: "", wantErr: true},
		{in: "fast", wantErr: true},
		{in: "320m", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeBitrate(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NormalizeBitrate(%q) = %q, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("NormalizeBitrate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
