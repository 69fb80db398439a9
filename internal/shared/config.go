package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

var bitratePattern = regexp.MustCompile(`(?i)^(\d+)\s*(k|kbps|kb/s)?$`)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Convert ConvertConfig `toml:"convert"`
	Tools   ToolsConfig   `toml:"tools"`
	Logging LoggingConfig `toml:"logging"`
	Report  ReportConfig  `toml:"report"`
}

// ConvertConfig contains defaults for a conversion batch.
type ConvertConfig struct {
	Bitrate           string  `toml:"bitrate"`
	Threads           int     `toml:"threads"` // 0 means one per CPU
	RestructureFolder string  `toml:"restructure_folder"`
	MaxLaunchRate     float64 `toml:"max_launch_rate"` // encoder starts per second, 0 is unlimited
	FolderCover       bool    `toml:"folder_cover"`
	InferTags         bool    `toml:"infer_tags"` // fill missing artist/album/track/title from the folder layout
}

// ToolsConfig names the external binaries.
type ToolsConfig struct {
	FFmpeg     string   `toml:"ffmpeg"`
	FFprobe    string   `toml:"ffprobe"`
	TagTimeout Duration `toml:"tag_timeout"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// ReportConfig controls the final run report.
type ReportConfig struct {
	Format string `toml:"format"`
	Path   string `toml:"path"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// DefaultConfigPath returns mp3cator/config.toml under the user config directory, or "" when it is unknown.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "mp3cator", "config.toml")
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate normalizes the bitrate and rejects values the encoder cannot use.
func (c *Config) Validate() error {
	bitrate, err := NormalizeBitrate(c.Convert.Bitrate)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	c.Convert.Bitrate = bitrate

	if c.Convert.Threads < 0 {
		return fmt.Errorf("%w: threads must not be negative (got %d)", ErrInvalidConfig, c.Convert.Threads)
	}
	if c.Convert.MaxLaunchRate < 0 {
		return fmt.Errorf("%w: max_launch_rate must not be negative", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Convert.RestructureFolder) == "" || strings.ContainsAny(c.Convert.RestructureFolder, `/\`) {
		return fmt.Errorf("%w: restructure_folder must be a single directory name", ErrInvalidConfig)
	}
	if c.Tools.FFmpeg == "" || c.Tools.FFprobe == "" {
		return fmt.Errorf("%w: tools.ffmpeg and tools.ffprobe must be set", ErrInvalidConfig)
	}

	switch c.Report.Format {
	case "", "text", "json", "csv", "markdown":
	default:
		return fmt.Errorf("%w: unknown report format %q", ErrInvalidConfig, c.Report.Format)
	}
	return nil
}

// NormalizeBitrate accepts "320", "320k", "320kbps" and returns "320k".
func NormalizeBitrate(s string) (string, error) {
	m := bitratePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil || strings.TrimLeft(m[1], "0") == "" {
		return "", fmt.Errorf("invalid bitrate %q", s)
	}
	return strings.TrimLeft(m[1], "0") + "k", nil
}

// Duration is a [time.Duration] read from a TOML string such as "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
