package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the complete postured configuration
type Config struct {
	InstanceID       string          `yaml:"instance_id"`
	ShutdownTimeoutS int             `yaml:"shutdown_timeout_s"` // Graceful shutdown timeout in seconds (default: 5)
	Camera           CameraConfig    `yaml:"camera"`
	Estimator        EstimatorConfig `yaml:"estimator"`
	Overlay          OverlayConfig   `yaml:"overlay"`
	Preview          PreviewConfig   `yaml:"preview"`
}

// CameraConfig contains capture settings
type CameraConfig struct {
	Device          string `yaml:"device"` // V4L2 device node, e.g. /dev/video0
	Width           int    `yaml:"width"`
	Height          int    `yaml:"height"`
	FPS             int    `yaml:"fps"`
	WarmupDurationS int    `yaml:"warmup_duration_s"` // warm-up duration in seconds
	Mock            bool   `yaml:"mock"`              // synthetic frames instead of a device
}

// EstimatorConfig contains pose model settings
type EstimatorConfig struct {
	Command   []string `yaml:"command"` // worker invocation, e.g. [python3, workers/pose_worker.py]
	ModelPath string   `yaml:"model_path"`
}

// OverlayConfig contains rendering settings
type OverlayConfig struct {
	Mirror         *bool `yaml:"mirror"`           // selfie-view flip (default: true)
	TickIntervalMs int   `yaml:"tick_interval_ms"` // render tick period (default: 33)
}

// PreviewConfig contains preview surface settings
type PreviewConfig struct {
	Path    string `yaml:"path"`    // output image path, format from extension
	Quality int    `yaml:"quality"` // jpeg/webp quality 1-100 (default: 85)
}

// Mirrored reports the effective mirror setting.
func (o OverlayConfig) Mirrored() bool {
	if o.Mirror == nil {
		return true
	}
	return *o.Mirror
}

// Load reads and parses a YAML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
