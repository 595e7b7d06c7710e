package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ExplanationPart is one titled section of an explanation.
// Content may contain $...$ inline and $$...$$ block math.
type ExplanationPart struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Explanation is either free text or an ordered list of titled sections.
// It encodes as a JSON string or a JSON array accordingly.
type Explanation struct {
	Text  string
	Parts []ExplanationPart
}

// IsStructured reports whether the explanation is a list of sections
func (e Explanation) IsStructured() bool {
	return e.Parts != nil
}

// IsEmpty reports whether the explanation carries no content at all
func (e Explanation) IsEmpty() bool {
	return e.Text == "" && len(e.Parts) == 0
}

// MarshalJSON implements json.Marshaler
func (e Explanation) MarshalJSON() ([]byte, error) {
	if e.Parts != nil {
		return json.Marshal(e.Parts)
	}
	return json.Marshal(e.Text)
}

// UnmarshalJSON implements json.Unmarshaler
func (e *Explanation) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*e = Explanation{}
		return nil
	}

	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*e = Explanation{Text: text}
		return nil
	case '[':
		parts := []ExplanationPart{}
		if err := json.Unmarshal(trimmed, &parts); err != nil {
			return err
		}
		*e = Explanation{Parts: parts}
		return nil
	default:
		return fmt.Errorf("explanation must be a string or an array, got %s", string(trimmed[:1]))
	}
}

// AnalysisResult is the structured explanation produced for one analysis request
type AnalysisResult struct {
	Summary     string      `json:"summary"`
	Keywords    []string    `json:"keywords"`
	Explanation Explanation `json:"explanation"`
	Examples    []string    `json:"examples"`
}
