package entity

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
)

// NoAnswer marks a question the team explicitly skipped.
const NoAnswer = "NO_ANSWER"

// Answers maps a question position to an option text, free text or NoAnswer.
type Answers map[int]string

// Scan implements sql.Scanner for Answers.
func (a *Answers) Scan(value interface{}) error {
	bytes, err := jsonBytes(value)
	if err != nil {
		return err
	}
	if len(bytes) == 0 {
		*a = Answers{}
		return nil
	}
	return json.Unmarshal(bytes, a)
}

// Value implements driver.Valuer for Answers.
func (a Answers) Value() (driver.Value, error) {
	if len(a) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(map[int]string(a))
}

// Has reports whether the question has any answer, NoAnswer included.
func (a Answers) Has(position int) bool {
	v, ok := a[position]
	return ok && strings.TrimSpace(v) != ""
}

// Given returns the answer text, or "" when unanswered or explicitly skipped.
func (a Answers) Given(position int) string {
	v := a[position]
	if v == NoAnswer {
		return ""
	}
	return v
}

// Clone returns a copy safe to mutate.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// RawJSON is a JSONB column stored verbatim.
type RawJSON json.RawMessage

// Scan implements sql.Scanner for RawJSON.
func (r *RawJSON) Scan(value interface{}) error {
	bytes, err := jsonBytes(value)
	if err != nil {
		return err
	}
	*r = append((*r)[:0], bytes...)
	return nil
}

// Value implements driver.Valuer for RawJSON.
func (r RawJSON) Value() (driver.Value, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return []byte(r), nil
}

// MarshalJSON emits the stored document unchanged.
func (r RawJSON) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// UnmarshalJSON keeps a copy of the document.
func (r *RawJSON) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}
