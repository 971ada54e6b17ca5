package verify

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"time"

	"fieldwork/internal/survey"
)

// recordDigest computes the integrity digest over the canonical projection
// of a record: survey id, start and end times, start and end locations,
// and the answer and location counts. FNV-1a is deterministic across
// processes; this is a tamper-evidence hint, not a security boundary.
func recordDigest(record *survey.VerificationRecord) string {
	h := fnv.New32a()

	write := func(s string) {
		_, _ = h.Write([]byte(s))
		_, _ = h.Write([]byte{'|'})
	}

	write("v" + strconv.Itoa(survey.RecordVersion))
	write(record.SurveyID)
	write(canonicalTime(record.StartTime))
	write(canonicalTime(record.EndTime))
	write(canonicalLocation(record.StartLocation))
	write(canonicalLocation(record.EndLocation))
	write(strconv.Itoa(len(record.AnswerTimestamps)))
	write(strconv.Itoa(len(record.LocationHistory)))

	return fmt.Sprintf("%08x", h.Sum32())
}

func canonicalTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func canonicalLocation(sample *survey.GeoSample) string {
	if sample == nil {
		return "-"
	}
	return fmt.Sprintf("%.6f,%.6f", sample.Latitude, sample.Longitude)
}
