package decoder

import (
	"fmt"
	"strconv"
	"strings"
)

type Kind int

const (
	Integer Kind = iota
	Real
	Text
	Enum
	Series
	Flags
)

func (k Kind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Real:
		return "real"
	case Text:
		return "text"
	case Enum:
		return "enum"
	case Series:
		return "series"
	case Flags:
		return "flags"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is the typed result of decoding one descriptor. Int holds the integer
// for Integer, the raw code for Enum and the raw bits for Flags. Text holds the
// string for Text and the label for Enum.
type Value struct {
	Kind   Kind      `json:"kind"`
	Int    int64     `json:"int,omitempty"`
	Real   float64   `json:"real,omitempty"`
	Text   string    `json:"text,omitempty"`
	Series []float64 `json:"series,omitempty"`
	Flags  []Flag    `json:"flags,omitempty"`
}

type Flag struct {
	Label string `json:"label"`
	Set   bool   `json:"set"`
}

// Float returns the numeric value for Integer and Real.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case Integer:
		return float64(v.Int), true
	case Real:
		return v.Real, true
	}
	return 0, false
}

// Flag reports whether the named flag is set.
func (v Value) Flag(label string) bool {
	for _, f := range v.Flags {
		if f.Label == label {
			return f.Set
		}
	}
	return false
}

// Format renders the value for publishing. Reals use precision decimal places;
// a negative precision uses the shortest exact representation.
func (v Value) Format(precision int) string {
	switch v.Kind {
	case Integer:
		return strconv.FormatInt(v.Int, 10)
	case Real:
		return strconv.FormatFloat(v.Real, 'f', precision, 64)
	case Text, Enum:
		return v.Text
	case Series:
		parts := make([]string, len(v.Series))
		for i, f := range v.Series {
			parts[i] = strconv.FormatFloat(f, 'f', precision, 64)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case Flags:
		var set []string
		for _, f := range v.Flags {
			if f.Set {
				set = append(set, f.Label)
			}
		}
		return strings.Join(set, ",")
	}
	return ""
}

func (v Value) String() string {
	return v.Format(-1)
}
