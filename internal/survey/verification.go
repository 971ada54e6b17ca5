package survey

import "time"

// RecordVersion is the fixed schema version stamped on finalized
// verification records.
const RecordVersion = 1

// LocationHistoryCap bounds the periodic sample history; once full, the
// oldest samples are evicted so the most recent entries remain.
const LocationHistoryCap = 10

// GeoSample is a single location fix.
type GeoSample struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

// AnswerLogEntry records one logged answer inside a verification record.
// Location is nil when the sample failed; logging never blocks capture.
type AnswerLogEntry struct {
	QuestionID   string     `json:"question_id"`
	Timestamp    time.Time  `json:"timestamp"`
	Location     *GeoSample `json:"location,omitempty"`
	AnswerType   AnswerType `json:"answer_type"`
	AnswerLength int        `json:"answer_length"`
}

// DeviceInfo is a static snapshot captured when a survey starts.
type DeviceInfo struct {
	DeviceID         string    `json:"device_id"`
	Platform         string    `json:"platform"`
	Language         string    `json:"language"`
	Timezone         string    `json:"timezone"`
	ScreenResolution string    `json:"screen_resolution,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// VerificationRecord captures the audit trail of one survey attempt. It is
// owned exclusively by the recorder until handed over at completion.
type VerificationRecord struct {
	SurveyID         string           `json:"survey_id"`
	AttemptID        string           `json:"attempt_id"`
	StartTime        time.Time        `json:"start_time"`
	EndTime          time.Time        `json:"end_time,omitempty"`
	StartLocation    *GeoSample       `json:"start_location,omitempty"`
	EndLocation      *GeoSample       `json:"end_location,omitempty"`
	LocationHistory  []GeoSample      `json:"location_history"`
	AnswerTimestamps []AnswerLogEntry `json:"answer_timestamps"`
	DeviceInfo       DeviceInfo       `json:"device_info"`
	DurationSeconds  int              `json:"duration_seconds"`
	VerificationHash string           `json:"verification_hash,omitempty"`
	CompletedAt      time.Time        `json:"completed_at,omitempty"`
	Version          int              `json:"version"`
}

// Clone returns a deep copy so snapshots handed to callers cannot alias the
// record still being mutated by the sampler.
func (r *VerificationRecord) Clone() *VerificationRecord {
	if r == nil {
		return nil
	}
	cp := *r
	if r.StartLocation != nil {
		loc := *r.StartLocation
		cp.StartLocation = &loc
	}
	if r.EndLocation != nil {
		loc := *r.EndLocation
		cp.EndLocation = &loc
	}
	cp.LocationHistory = append([]GeoSample(nil), r.LocationHistory...)
	cp.AnswerTimestamps = make([]AnswerLogEntry, len(r.AnswerTimestamps))
	for i, entry := range r.AnswerTimestamps {
		cp.AnswerTimestamps[i] = entry
		if entry.Location != nil {
			loc := *entry.Location
			cp.AnswerTimestamps[i].Location = &loc
		}
	}
	return &cp
}
