// Package notation defines the pitch systems understood by musictext and the
// participle lexers that recognize content-line tokens for each of them.
package notation

import (
	"fmt"
	"strings"
)

// System identifies a pitch notation system.
type System string

// Supported notation systems, in detection priority order.
const (
	// Number uses scale degrees 1-7.
	Number System = "number"

	// Sargam uses the Hindustani syllables S r R g G m M P d D n N.
	Sargam System = "sargam"

	// Western uses letter names C-B.
	Western System = "western"

	// Bhatkhande uses Devanagari syllables.
	Bhatkhande System = "bhatkhande"

	// Tabla uses percussion bols, all mapped to the first degree.
	Tabla System = "tabla"
)

// systems lists every system in detection priority order.
var systems = []System{Number, Sargam, Western, Bhatkhande, Tabla}

var validSystems = map[System]bool{
	Number:     true,
	Sargam:     true,
	Western:    true,
	Bhatkhande: true,
	Tabla:      true,
}

// IsValid returns true if the system is known.
func (s System) IsValid() bool {
	return validSystems[s]
}

// String returns the system name.
func (s System) String() string {
	return string(s)
}

// Systems returns all supported systems in detection priority order.
func Systems() []System {
	out := make([]System, len(systems))
	copy(out, systems)
	return out
}

// ParseSystem converts a user-supplied name into a System. The empty string
// and "auto" return ("", nil), meaning detection should be used.
func ParseSystem(name string) (System, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "", "auto":
		return "", nil
	case "numbers", "numeric":
		return Number, nil
	case "devanagari":
		return Bhatkhande, nil
	}
	s := System(n)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown notation system %q", name)
	}
	return s, nil
}
