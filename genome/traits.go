package genome

import (
	"errors"
	"fmt"
)

// EncodingError reports a genome that does not fit its schema, or a schema
// that cannot describe a genome. Segment is empty for whole-genome errors.
type EncodingError struct {
	Segment string
	Reason  string
}

func (e *EncodingError) Error() string {
	if e.Segment == "" {
		return "genome: " + e.Reason
	}
	return fmt.Sprintf("genome: segment %q: %s", e.Segment, e.Reason)
}

// IsEncodingError reports whether err wraps an *EncodingError.
func IsEncodingError(err error) bool {
	var ee *EncodingError
	return errors.As(err, &ee)
}

// TraitMap holds decoded trait values keyed by segment name.
type TraitMap map[string]any

// Value returns the raw decoded value of a segment.
func (m TraitMap) Value(name string) (any, error) {
	v, ok := m[name]
	if !ok {
		return nil, &EncodingError{Segment: name, Reason: "missing trait"}
	}
	return v, nil
}

// Float returns a numeric trait.
func (m TraitMap) Float(name string) (float64, error) {
	v, err := m.Value(name)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	}
	return 0, &EncodingError{Segment: name, Reason: fmt.Sprintf("trait is %T, not numeric", v)}
}

// String returns a choice trait as a string.
func (m TraitMap) String(name string) (string, error) {
	v, err := m.Value(name)
	if err != nil {
		return "", err
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return fmt.Sprint(v), nil
}

// Bool returns a choice trait as a boolean.
func (m TraitMap) Bool(name string) (bool, error) {
	v, err := m.Value(name)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, &EncodingError{Segment: name, Reason: fmt.Sprintf("trait is %T, not bool", v)}
	}
	return b, nil
}
