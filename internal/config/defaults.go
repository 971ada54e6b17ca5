package config

const (
	defaultDataDir        = "~/.local/share/fieldwork"
	defaultLogDir         = "~/.local/share/fieldwork/logs"
	defaultStorageBackend = "auto"
	defaultDestination    = "~/.local/share/fieldwork/uploads"
	defaultRequestTimeout = 30
	defaultDrainInterval  = 60
	defaultProbeInterval  = 15
	defaultProbeTimeout   = 5
	defaultSampleInterval = 10
	defaultBaseLatitude   = 13.7563
	defaultBaseLongitude  = 100.5018
	defaultJitterMeters   = 50
	defaultMinAccuracy    = 5
	defaultMaxAccuracy    = 25
	defaultLogFormat      = "auto"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Storage: Storage{
			Backend: defaultStorageBackend,
		},
		Sync: Sync{
			Destination:    defaultDestination,
			RequestTimeout: defaultRequestTimeout,
			DrainInterval:  defaultDrainInterval,
			ProbeInterval:  defaultProbeInterval,
			ProbeTimeout:   defaultProbeTimeout,
		},
		Verification: Verification{
			SampleInterval: defaultSampleInterval,
			BaseLatitude:   defaultBaseLatitude,
			BaseLongitude:  defaultBaseLongitude,
			JitterMeters:   defaultJitterMeters,
			MinAccuracy:    defaultMinAccuracy,
			MaxAccuracy:    defaultMaxAccuracy,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
