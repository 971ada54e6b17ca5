package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fieldwork/internal/logging"
	"fieldwork/internal/store"
	"fieldwork/internal/survey"
	"fieldwork/internal/verify"
)

// Controller orchestrates one survey attempt over a fixed question list.
type Controller struct {
	surveyID  string
	questions []survey.Question
	recorder  *verify.Recorder
	store     *store.Store
	logger    *slog.Logger
	clock     func() time.Time

	index   int
	answers map[string]any
	notes   string
	started bool

	// completed holds the finalized verification record when persistence
	// failed, so a retry does not need the recorder again.
	completed *survey.VerificationRecord
}

// ControllerOption configures optional Controller behavior.
type ControllerOption func(*Controller)

// WithClock overrides the time source; tests use a fixed clock.
func WithClock(clock func() time.Time) ControllerOption {
	return func(c *Controller) { c.clock = clock }
}

// NewController builds a session over the given ordered questions.
func NewController(surveyID string, questions []survey.Question, recorder *verify.Recorder, st *store.Store, logger *slog.Logger, opts ...ControllerOption) (*Controller, error) {
	if strings.TrimSpace(surveyID) == "" {
		return nil, errors.New("survey id is empty")
	}
	if err := survey.ValidateQuestions(questions); err != nil {
		return nil, err
	}
	c := &Controller{
		surveyID:  surveyID,
		questions: append([]survey.Question(nil), questions...),
		recorder:  recorder,
		store:     st,
		logger:    logging.NewComponentLogger(logger, "session"),
		clock:     func() time.Time { return time.Now().UTC() },
		answers:   make(map[string]any),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start begins verification recording for this attempt.
func (c *Controller) Start(ctx context.Context) error {
	if c.started {
		return errors.New("session already started")
	}
	if _, err := c.recorder.StartSurvey(ctx, c.surveyID); err != nil {
		return fmt.Errorf("start verification: %w", err)
	}
	c.started = true
	c.logger.Info("session started",
		logging.String(logging.FieldSurveyID, c.surveyID),
		logging.Int("questions", len(c.questions)))
	return nil
}

// SurveyID returns the attempt's survey identifier.
func (c *Controller) SurveyID() string { return c.surveyID }

// Current returns the question at the cursor.
func (c *Controller) Current() survey.Question { return c.questions[c.index] }

// Index returns the 0-based cursor position.
func (c *Controller) Index() int { return c.index }

// Len returns the number of questions.
func (c *Controller) Len() int { return len(c.questions) }

// AtEnd reports whether the cursor is on the last question.
func (c *Controller) AtEnd() bool { return c.index == len(c.questions)-1 }

// RecordAnswer stores a value for the current question (last write wins)
// and forwards it to the verification recorder. Recorder trouble is logged
// and swallowed; answer capture must succeed regardless.
func (c *Controller) RecordAnswer(ctx context.Context, value any) {
	question := c.Current()
	c.answers[question.ID] = value
	c.recorder.LogAnswer(ctx, question.ID, value)
}

// Answer returns the recorded value for a question id.
func (c *Controller) Answer(questionID string) (any, bool) {
	value, ok := c.answers[questionID]
	return value, ok
}

// Answers returns a copy of the answer map.
func (c *Controller) Answers() map[string]any {
	out := make(map[string]any, len(c.answers))
	for k, v := range c.answers {
		out[k] = v
	}
	return out
}

// SetNotes replaces the free-text notes attached to the attempt.
func (c *Controller) SetNotes(notes string) { c.notes = notes }

// Notes returns the attempt's free-text notes.
func (c *Controller) Notes() string { return c.notes }

// CanAdvance reports whether the cursor may move past the current
// question: optional questions always, required ones only with a
// non-empty answer. Empty strings and nil count as unanswered.
func (c *Controller) CanAdvance() bool {
	question := c.Current()
	if !question.Required {
		return true
	}
	value, ok := c.answers[question.ID]
	if !ok || value == nil {
		return false
	}
	if s, isString := value.(string); isString && strings.TrimSpace(s) == "" {
		return false
	}
	return true
}

// Advance moves the cursor forward one question, clamped at the end.
func (c *Controller) Advance() {
	if c.index < len(c.questions)-1 {
		c.index++
	}
}

// Retreat moves the cursor back one question, clamped at the start.
func (c *Controller) Retreat() {
	if c.index > 0 {
		c.index--
	}
}

// Complete finalizes verification, assembles the packet, and persists it.
// On failure the in-memory session state survives so the caller can retry;
// a retry after a persistence failure reuses the already-finalized
// verification record rather than touching the recorder again.
func (c *Controller) Complete(ctx context.Context) (*survey.Packet, error) {
	record := c.completed
	if record == nil {
		finalized, err := c.recorder.Complete(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: finalize verification: %w", ErrCompletion, err)
		}
		record = finalized
		c.completed = finalized
	}

	packet := &survey.Packet{
		SurveyID:     c.surveyID,
		Answers:      c.Answers(),
		Notes:        c.notes,
		Verification: record,
		CompletedAt:  c.clock(),
		Status:       survey.StatusCompleted,
	}

	stored, err := c.store.Save(ctx, packet)
	if err != nil {
		return nil, fmt.Errorf("%w: persist packet: %w", ErrCompletion, err)
	}

	c.completed = nil
	c.started = false
	c.logger.Info("session completed",
		logging.String(logging.FieldSurveyID, c.surveyID),
		logging.Int("answers", stored.AnswerCount()),
		logging.String("sync_status", string(stored.SyncStatus)))
	return stored, nil
}

// Abandon releases the recorder's active state for a session that will
// never complete. Safe to call at any point, including after Complete.
func (c *Controller) Abandon() {
	c.recorder.Abort()
	c.completed = nil
	c.started = false
	c.logger.Info("session abandoned",
		logging.String(logging.FieldSurveyID, c.surveyID),
		logging.Int("answers", len(c.answers)))
}
