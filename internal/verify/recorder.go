package verify

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"fieldwork/internal/logging"
	"fieldwork/internal/survey"
)

const defaultSampleInterval = 10 * time.Second

// Recorder drives the Idle -> Active -> Idle verification lifecycle for
// one survey attempt at a time.
type Recorder struct {
	location LocationProvider
	device   DeviceProvider
	logger   *slog.Logger

	clock          func() time.Time
	sampleInterval time.Duration
	newAttemptID   func() string

	mu      sync.Mutex
	record  *survey.VerificationRecord
	sampler *sampler
}

// RecorderOption configures optional Recorder behavior.
type RecorderOption func(*Recorder)

// WithClock overrides the time source; tests use a fixed clock.
func WithClock(clock func() time.Time) RecorderOption {
	return func(r *Recorder) { r.clock = clock }
}

// WithSampleInterval overrides the periodic location sample cadence.
func WithSampleInterval(interval time.Duration) RecorderOption {
	return func(r *Recorder) {
		if interval > 0 {
			r.sampleInterval = interval
		}
	}
}

// NewRecorder constructs a recorder bound to the provided providers.
func NewRecorder(location LocationProvider, device DeviceProvider, logger *slog.Logger, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		location:       location,
		device:         device,
		logger:         logging.NewComponentLogger(logger, "verify"),
		clock:          func() time.Time { return time.Now().UTC() },
		sampleInterval: defaultSampleInterval,
		newAttemptID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// StartSurvey transitions Idle to Active: captures the start time, an
// initial location fix, and the device snapshot, then begins periodic
// sampling. Starting while another survey is active overwrites the prior
// in-memory state; callers must Complete or Abort first to avoid silent
// loss, and the recorder warns when they do not.
func (r *Recorder) StartSurvey(ctx context.Context, surveyID string) (*survey.VerificationRecord, error) {
	startLocation, err := r.location.GetLocation(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: start location: %w", ErrProvider, err)
	}
	deviceInfo, err := r.device.GetDeviceInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: device info: %w", ErrProvider, err)
	}

	r.mu.Lock()
	if r.record != nil {
		r.logger.Warn("starting survey while another is active, discarding prior record",
			logging.String(logging.FieldEventType, "verification_overwrite"),
			logging.String("previous_survey_id", r.record.SurveyID),
			logging.String(logging.FieldSurveyID, surveyID),
			logging.String(logging.FieldImpact, "the prior attempt's verification trail is lost"))
	}
	prior := r.sampler
	now := r.clock()
	start := startLocation
	r.record = &survey.VerificationRecord{
		SurveyID:         surveyID,
		AttemptID:        r.newAttemptID(),
		StartTime:        now,
		StartLocation:    &start,
		LocationHistory:  []survey.GeoSample{},
		AnswerTimestamps: []survey.AnswerLogEntry{},
		DeviceInfo:       deviceInfo,
		Version:          survey.RecordVersion,
	}
	r.sampler = newSampler(r, r.sampleInterval)
	snapshot := r.record.Clone()
	r.mu.Unlock()

	prior.stop()

	r.logger.Info("verification started",
		logging.String(logging.FieldSurveyID, surveyID),
		logging.String("attempt_id", snapshot.AttemptID),
		logging.Duration("sample_interval", r.sampleInterval))
	return snapshot, nil
}

// LogAnswer appends a timestamped entry for one answered question. It is a
// no-op with a warning when no survey is active, and a failed location fix
// degrades to an entry without location: logging must never block answer
// capture.
func (r *Recorder) LogAnswer(ctx context.Context, questionID string, value any) {
	if !r.isActive() {
		r.logger.Warn("answer logged with no active survey",
			logging.String(logging.FieldEventType, "verification_inactive"),
			logging.String("question_id", questionID),
			logging.String(logging.FieldImpact, "answer is captured without a verification entry"))
		return
	}

	var location *survey.GeoSample
	if sample, err := r.location.GetLocation(ctx); err == nil {
		location = &sample
	} else {
		r.logger.Debug("location fix failed during answer log",
			logging.Error(err),
			logging.String("question_id", questionID))
	}

	entry := survey.AnswerLogEntry{
		QuestionID:   questionID,
		Timestamp:    r.clock(),
		Location:     location,
		AnswerType:   survey.Classify(value),
		AnswerLength: survey.Size(value),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.record == nil {
		return
	}
	r.record.AnswerTimestamps = append(r.record.AnswerTimestamps, entry)
}

// Complete finalizes the active record: stops sampling, takes a final
// location fix, derives the duration and integrity digest, and returns the
// record. The recorder is Idle afterwards and retains nothing.
func (r *Recorder) Complete(ctx context.Context) (*survey.VerificationRecord, error) {
	r.mu.Lock()
	if r.record == nil {
		r.mu.Unlock()
		return nil, ErrNotActive
	}
	sampler := r.sampler
	r.sampler = nil
	r.mu.Unlock()

	sampler.stop()

	var endLocation *survey.GeoSample
	if sample, err := r.location.GetLocation(ctx); err == nil {
		endLocation = &sample
	} else {
		r.logger.Warn("final location fix failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "verification_end_fix_failed"),
			logging.String(logging.FieldImpact, "record completes without an end location"))
	}

	r.mu.Lock()
	record := r.record
	if record == nil {
		r.mu.Unlock()
		return nil, ErrNotActive
	}
	now := r.clock()
	record.EndTime = now
	record.EndLocation = endLocation
	record.DurationSeconds = int(math.Round(now.Sub(record.StartTime).Seconds()))
	record.CompletedAt = now
	record.Version = survey.RecordVersion
	record.VerificationHash = recordDigest(record)
	r.record = nil
	r.mu.Unlock()

	r.logger.Info("verification completed",
		logging.String(logging.FieldSurveyID, record.SurveyID),
		logging.Int("answers", len(record.AnswerTimestamps)),
		logging.Int("location_samples", len(record.LocationHistory)),
		logging.Int("duration_seconds", record.DurationSeconds),
		logging.String("hash", record.VerificationHash))
	return record, nil
}

// Abort discards the active record and stops sampling. Safe to call when
// idle; session teardown calls it unconditionally so an abandoned survey
// never wedges the recorder in Active.
func (r *Recorder) Abort() {
	r.mu.Lock()
	record := r.record
	sampler := r.sampler
	r.record = nil
	r.sampler = nil
	r.mu.Unlock()

	sampler.stop()
	if record != nil {
		r.logger.Info("verification aborted",
			logging.String(logging.FieldSurveyID, record.SurveyID),
			logging.Int("answers", len(record.AnswerTimestamps)))
	}
}

// StopSampling cancels the periodic sampler without ending the survey.
// Idempotent; Complete and Abort also stop it.
func (r *Recorder) StopSampling() {
	r.mu.Lock()
	sampler := r.sampler
	r.sampler = nil
	r.mu.Unlock()

	sampler.stop()
}

// RecorderStatus is a read-only snapshot of recorder state.
type RecorderStatus struct {
	IsActive      bool
	SurveyID      string
	StartTime     time.Time
	AnswerCount   int
	LocationCount int
	IsSampling    bool
}

// Status reports the current state; callable in any state, never fails.
func (r *Recorder) Status() RecorderStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := RecorderStatus{IsSampling: r.sampler != nil}
	if r.record != nil {
		status.IsActive = true
		status.SurveyID = r.record.SurveyID
		status.StartTime = r.record.StartTime
		status.AnswerCount = len(r.record.AnswerTimestamps)
		status.LocationCount = len(r.record.LocationHistory)
	}
	return status
}

func (r *Recorder) isActive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.record != nil
}

// appendSample adds a periodic fix to the history, evicting the oldest
// entries beyond the cap.
func (r *Recorder) appendSample(sample survey.GeoSample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.record == nil {
		return
	}
	history := append(r.record.LocationHistory, sample)
	if overflow := len(history) - survey.LocationHistoryCap; overflow > 0 {
		history = append(history[:0:0], history[overflow:]...)
	}
	r.record.LocationHistory = history
}

// sampler runs the periodic location loop for one attempt. Stopping is
// idempotent and waits for the loop to exit.
type sampler struct {
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newSampler(r *Recorder, interval time.Duration) *sampler {
	s := &sampler{
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.run(r, interval)
	return s
}

func (s *sampler) run(r *Recorder, interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			sample, err := r.location.GetLocation(context.Background())
			if err != nil {
				r.logger.Debug("periodic location fix failed", logging.Error(err))
				continue
			}
			r.appendSample(sample)
		}
	}
}

func (s *sampler) stop() {
	if s == nil {
		return
	}
	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.done
}
