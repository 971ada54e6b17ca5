package config

import (
	"errors"
	"fmt"
	"strings"
)

var validBackends = map[string]struct{}{
	"auto":   {},
	"sqlite": {},
	"file":   {},
}

var validLogFormats = map[string]struct{}{
	"auto":    {},
	"console": {},
	"json":    {},
}

// Validate checks invariants that normalize cannot repair.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		problems = append(problems, "paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir must be set")
	}
	if _, ok := validBackends[c.Storage.Backend]; !ok {
		problems = append(problems, fmt.Sprintf("storage.backend: unsupported value %q (want auto, sqlite, or file)", c.Storage.Backend))
	}
	if strings.TrimSpace(c.Sync.Destination) == "" {
		problems = append(problems, "sync.destination must be set")
	}
	if _, ok := validLogFormats[c.Logging.Format]; !ok {
		problems = append(problems, fmt.Sprintf("logging.format: unsupported value %q (want auto, console, or json)", c.Logging.Format))
	}
	if c.Verification.MinAccuracy > c.Verification.MaxAccuracy {
		problems = append(problems, "verification.min_accuracy must not exceed max_accuracy")
	}
	if c.Verification.BaseLatitude < -90 || c.Verification.BaseLatitude > 90 {
		problems = append(problems, "verification.base_latitude must be within [-90, 90]")
	}
	if c.Verification.BaseLongitude < -180 || c.Verification.BaseLongitude > 180 {
		problems = append(problems, "verification.base_longitude must be within [-180, 180]")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
