package verify

import (
	"context"
	"math"
	"math/rand/v2"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"fieldwork/internal/config"
	"fieldwork/internal/survey"
)

// LocationProvider supplies location fixes. Implementations may fail with
// ErrLocationUnavailable; the recorder degrades on a per-fix basis.
type LocationProvider interface {
	GetLocation(ctx context.Context) (survey.GeoSample, error)
}

// DeviceProvider supplies the static device snapshot captured at survey
// start.
type DeviceProvider interface {
	GetDeviceInfo(ctx context.Context) (survey.DeviceInfo, error)
}

// metersPerDegreeLat is close enough at survey scales; longitude degrees
// shrink with cos(latitude).
const metersPerDegreeLat = 111320.0

// SimulatedLocation jitters fixes around a base coordinate. It stands in
// for GPS hardware; precision semantics for a real provider are out of
// scope here.
type SimulatedLocation struct {
	baseLat     float64
	baseLon     float64
	jitter      float64
	minAccuracy float64
	maxAccuracy float64
	rng         *rand.Rand
	clock       func() time.Time
}

// NewSimulatedLocation builds a provider from config. Pass a nil rng to use
// a randomly seeded source; tests inject a fixed seed for determinism.
func NewSimulatedLocation(cfg config.Verification, rng *rand.Rand, clock func() time.Time) *SimulatedLocation {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &SimulatedLocation{
		baseLat:     cfg.BaseLatitude,
		baseLon:     cfg.BaseLongitude,
		jitter:      cfg.JitterMeters,
		minAccuracy: cfg.MinAccuracy,
		maxAccuracy: cfg.MaxAccuracy,
		rng:         rng,
		clock:       clock,
	}
}

// GetLocation returns a jittered fix around the base coordinate.
func (s *SimulatedLocation) GetLocation(ctx context.Context) (survey.GeoSample, error) {
	if err := ctx.Err(); err != nil {
		return survey.GeoSample{}, err
	}

	latOffset := (s.rng.Float64()*2 - 1) * s.jitter / metersPerDegreeLat
	lonScale := metersPerDegreeLat * math.Cos(s.baseLat*math.Pi/180)
	if lonScale < 1 {
		lonScale = 1
	}
	lonOffset := (s.rng.Float64()*2 - 1) * s.jitter / lonScale

	accuracy := s.minAccuracy
	if s.maxAccuracy > s.minAccuracy {
		accuracy += s.rng.Float64() * (s.maxAccuracy - s.minAccuracy)
	}

	return survey.GeoSample{
		Latitude:  s.baseLat + latOffset,
		Longitude: s.baseLon + lonOffset,
		Accuracy:  accuracy,
		Timestamp: s.clock(),
	}, nil
}

// StaticDevice reports a snapshot of the host: platform, language,
// timezone, and a stable per-process device id.
type StaticDevice struct {
	deviceID         string
	screenResolution string
	clock            func() time.Time
}

// NewStaticDevice builds the host device provider.
func NewStaticDevice(cfg config.Device, clock func() time.Time) *StaticDevice {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &StaticDevice{
		deviceID:         uuid.NewString(),
		screenResolution: cfg.ScreenResolution,
		clock:            clock,
	}
}

// GetDeviceInfo returns the static snapshot with a fresh capture time.
func (d *StaticDevice) GetDeviceInfo(ctx context.Context) (survey.DeviceInfo, error) {
	if err := ctx.Err(); err != nil {
		return survey.DeviceInfo{}, err
	}
	return survey.DeviceInfo{
		DeviceID:         d.deviceID,
		Platform:         runtime.GOOS + "/" + runtime.GOARCH,
		Language:         hostLanguage(),
		Timezone:         time.Local.String(),
		ScreenResolution: d.screenResolution,
		Timestamp:        d.clock(),
	}, nil
}

func hostLanguage() string {
	for _, key := range []string{"LC_ALL", "LANG"} {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			if idx := strings.IndexByte(value, '.'); idx > 0 {
				value = value[:idx]
			}
			return value
		}
	}
	return "en"
}
