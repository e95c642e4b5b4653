package score

import "fmt"

// Position is a 1-based line and column. Columns count code points of the
// NFC-normalized input.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Before reports whether p comes before q in reading order.
func (p Position) Before(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}

// Source is the origin of a parsed token. The position never changes; the
// value is moved out when the token is consumed.
type Source struct {
	Value    *string  `json:"value,omitempty"`
	Position Position `json:"position"`
}

// NewSource returns a source holding value at pos.
func NewSource(value string, pos Position) Source {
	return Source{Value: &value, Position: pos}
}

// Take moves the value out of the source. It returns false if the source was
// already consumed.
func (s *Source) Take() (string, bool) {
	if s.Value == nil {
		return "", false
	}
	v := *s.Value
	s.Value = nil
	return v, true
}

// Consumed reports whether the value has been taken.
func (s *Source) Consumed() bool {
	return s.Value == nil
}

// Peek returns the value without consuming it.
func (s *Source) Peek() string {
	if s.Value == nil {
		return ""
	}
	return *s.Value
}
