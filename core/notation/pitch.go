package notation

import (
	"fmt"
	"sort"
	"strconv"
)

// Accidental is a chromatic alteration of a scale degree.
type Accidental int

// Accidentals, from lowest to highest.
const (
	DoubleFlat Accidental = iota - 2
	Flat
	Natural
	Sharp
	DoubleSharp
)

var accidentalSuffix = map[Accidental]string{
	DoubleFlat:  "bb",
	Flat:        "b",
	Natural:     "",
	Sharp:       "s",
	DoubleSharp: "ss",
}

// PitchCode is the system-independent name of a pitch: a degree N1..N7
// followed by an optional accidental suffix (s, ss, b, bb).
type PitchCode string

// Code builds the pitch code for a degree (1-7) and accidental.
func Code(degree int, acc Accidental) PitchCode {
	return PitchCode(fmt.Sprintf("N%d%s", degree, accidentalSuffix[acc]))
}

// Degree returns the scale degree (1-7), or 0 if the code is malformed.
func (p PitchCode) Degree() int {
	if len(p) < 2 || p[0] != 'N' {
		return 0
	}
	d, err := strconv.Atoi(string(p[1]))
	if err != nil || d < 1 || d > 7 {
		return 0
	}
	return d
}

// Accidental returns the chromatic alteration encoded in the code.
func (p PitchCode) Accidental() Accidental {
	if len(p) < 2 {
		return Natural
	}
	switch string(p[2:]) {
	case "bb":
		return DoubleFlat
	case "b":
		return Flat
	case "s":
		return Sharp
	case "ss":
		return DoubleSharp
	}
	return Natural
}

// Lookup returns the pitch code of a symbol in the given system.
func Lookup(s System, symbol string) (PitchCode, bool) {
	table, ok := pitchTables[s]
	if !ok {
		return "", false
	}
	code, ok := table[symbol]
	return code, ok
}

// Symbols returns the pitch symbols of a system, longest first.
func Symbols(s System) []string {
	table := pitchTables[s]
	out := make([]string, 0, len(table))
	for sym := range table {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := len([]rune(out[i])), len([]rune(out[j]))
		if li != lj {
			return li > lj
		}
		return out[i] < out[j]
	})
	return out
}

var pitchTables = map[System]map[string]PitchCode{
	Number:     lettered([]string{"1", "2", "3", "4", "5", "6", "7"}),
	Western:    lettered([]string{"C", "D", "E", "F", "G", "A", "B"}),
	Sargam:     sargamTable(),
	Bhatkhande: bhatkhandeTable(),
	Tabla:      tablaTable(),
}

// lettered builds a table where each degree symbol accepts #, ##, b and bb.
func lettered(degrees []string) map[string]PitchCode {
	table := make(map[string]PitchCode, len(degrees)*5)
	for i, sym := range degrees {
		d := i + 1
		table[sym] = Code(d, Natural)
		table[sym+"#"] = Code(d, Sharp)
		table[sym+"##"] = Code(d, DoubleSharp)
		table[sym+"b"] = Code(d, Flat)
		table[sym+"bb"] = Code(d, DoubleFlat)
	}
	return table
}

func sargamTable() map[string]PitchCode {
	return map[string]PitchCode{
		"S": Code(1, Natural), "s": Code(1, Natural),
		"r": Code(2, Flat), "R": Code(2, Natural),
		"g": Code(3, Flat), "G": Code(3, Natural),
		"m": Code(4, Natural), "M": Code(4, Sharp),
		"P": Code(5, Natural), "p": Code(5, Natural),
		"d": Code(6, Flat), "D": Code(6, Natural),
		"n": Code(7, Flat), "N": Code(7, Natural),

		"S#": Code(1, Sharp), "S##": Code(1, DoubleSharp), "Sb": Code(1, Flat), "Sbb": Code(1, DoubleFlat),
		"R#": Code(2, Sharp), "R##": Code(2, DoubleSharp), "Rbb": Code(2, DoubleFlat),
		"G#": Code(3, Sharp), "G##": Code(3, DoubleSharp), "Gbb": Code(3, DoubleFlat),
		"mb": Code(4, Flat), "mbb": Code(4, DoubleFlat), "M#": Code(4, DoubleSharp),
		"P#": Code(5, Sharp), "P##": Code(5, DoubleSharp), "Pb": Code(5, Flat), "Pbb": Code(5, DoubleFlat),
		"D#": Code(6, Sharp), "D##": Code(6, DoubleSharp), "Dbb": Code(6, DoubleFlat),
		"N#": Code(7, Sharp), "N##": Code(7, DoubleSharp), "Nbb": Code(7, DoubleFlat),
	}
}

func bhatkhandeTable() map[string]PitchCode {
	table := make(map[string]PitchCode, 21)
	for i, sym := range []string{"स", "रे", "ग", "म", "प", "ध", "नि"} {
		d := i + 1
		table[sym] = Code(d, Natural)
		table[sym+"#"] = Code(d, Sharp)
		table[sym+"b"] = Code(d, Flat)
	}
	return table
}

func tablaTable() map[string]PitchCode {
	table := make(map[string]PitchCode, 8)
	for _, bol := range []string{"dha", "ge", "na", "ka", "ta", "trka", "terekita", "dhin"} {
		table[bol] = Code(1, Natural)
	}
	return table
}
