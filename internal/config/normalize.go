package config

import "strings"

// normalize expands paths and canonicalizes enum-like fields so the rest of
// the system never needs to trim or lowercase config values.
func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaultStorageBackend
	}

	c.Sync.Destination = strings.TrimSpace(c.Sync.Destination)
	if c.Sync.Destination != "" && !c.DestinationIsHTTP() {
		if c.Sync.Destination, err = expandPath(c.Sync.Destination); err != nil {
			return err
		}
	}
	if c.Sync.RequestTimeout <= 0 {
		c.Sync.RequestTimeout = defaultRequestTimeout
	}
	if c.Sync.DrainInterval <= 0 {
		c.Sync.DrainInterval = defaultDrainInterval
	}
	if c.Sync.ProbeInterval <= 0 {
		c.Sync.ProbeInterval = defaultProbeInterval
	}
	if c.Sync.ProbeTimeout <= 0 {
		c.Sync.ProbeTimeout = defaultProbeTimeout
	}

	if c.Verification.SampleInterval <= 0 {
		c.Verification.SampleInterval = defaultSampleInterval
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	return nil
}
