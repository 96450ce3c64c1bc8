package config

import (
	"fmt"
	"regexp"
)

var instanceIDPattern = regexp.MustCompile(`^[a-z0-9\-]+$`)

// Validate checks if the configuration is valid and fills in defaults
func Validate(cfg *Config) error {
	// Validate instance_id
	if cfg.InstanceID == "" {
		return fmt.Errorf("instance_id is required")
	}
	if !instanceIDPattern.MatchString(cfg.InstanceID) {
		return fmt.Errorf("instance_id must match pattern [a-z0-9-]+")
	}

	if cfg.ShutdownTimeoutS <= 0 {
		cfg.ShutdownTimeoutS = 5 // default
	}

	// Validate camera config
	if !cfg.Camera.Mock && cfg.Camera.Device == "" {
		return fmt.Errorf("camera.device is required (or set camera.mock)")
	}
	if cfg.Camera.Width <= 0 {
		cfg.Camera.Width = 640
	}
	if cfg.Camera.Height <= 0 {
		cfg.Camera.Height = 480
	}
	if cfg.Camera.FPS <= 0 {
		return fmt.Errorf("camera.fps must be > 0")
	}
	if cfg.Camera.WarmupDurationS <= 0 {
		cfg.Camera.WarmupDurationS = 3 // default
	}

	// Validate estimator config
	if len(cfg.Estimator.Command) == 0 {
		return fmt.Errorf("estimator.command is required")
	}
	if cfg.Estimator.ModelPath == "" {
		return fmt.Errorf("estimator.model_path is required")
	}

	// Overlay defaults
	if cfg.Overlay.TickIntervalMs <= 0 {
		cfg.Overlay.TickIntervalMs = 33 // ~30 Hz
	}

	// Validate preview config
	if cfg.Preview.Path == "" {
		return fmt.Errorf("preview.path is required")
	}
	if cfg.Preview.Quality <= 0 || cfg.Preview.Quality > 100 {
		cfg.Preview.Quality = 85 // default
	}

	return nil
}
