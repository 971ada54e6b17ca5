package survey

import "reflect"

// AnswerType classifies logged answer values for the verification trail.
type AnswerType string

const (
	AnswerText    AnswerType = "text"
	AnswerAudio   AnswerType = "audio"
	AnswerPhoto   AnswerType = "photo"
	AnswerObject  AnswerType = "object"
	AnswerUnknown AnswerType = "unknown"
)

// Media is an opaque binary answer payload captured by the device layer
// (microphone or camera). The pipeline never inspects Data.
type Media struct {
	Kind AnswerType `json:"kind"`
	Name string     `json:"name,omitempty"`
	Data []byte     `json:"data,omitempty"`
}

// Classify maps an answer value to its verification log type: strings are
// text, media payloads keep their declared kind, other structured values
// are objects, everything else is unknown.
func Classify(value any) AnswerType {
	switch v := value.(type) {
	case string:
		return AnswerText
	case Media:
		return classifyMedia(v)
	case *Media:
		if v == nil {
			return AnswerUnknown
		}
		return classifyMedia(*v)
	case nil:
		return AnswerUnknown
	}
	switch reflect.TypeOf(value).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Ptr:
		return AnswerObject
	default:
		return AnswerUnknown
	}
}

func classifyMedia(m Media) AnswerType {
	switch m.Kind {
	case AnswerAudio, AnswerPhoto:
		return m.Kind
	default:
		return AnswerObject
	}
}

// Size returns the logged length of an answer: character count for text,
// byte size for media payloads, zero otherwise.
func Size(value any) int {
	switch v := value.(type) {
	case string:
		return len(v)
	case Media:
		return len(v.Data)
	case *Media:
		if v == nil {
			return 0
		}
		return len(v.Data)
	default:
		return 0
	}
}
