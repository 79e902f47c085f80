package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MaxActiveFlags is the ceiling on simultaneously true flags.
const MaxActiveFlags = 3

// Flag names one of the product's boolean markers.
type Flag int

const (
	FlagActive Flag = iota
	FlagFastSelling
	FlagOnSale
	FlagNewArrival
	FlagLimitedEdition

	flagCount
)

var flagNames = [flagCount]string{
	FlagActive:         "isActive",
	FlagFastSelling:    "isFastSelling",
	FlagOnSale:         "isOnSale",
	FlagNewArrival:     "isNewArrival",
	FlagLimitedEdition: "isLimitedEdition",
}

func (f Flag) String() string {
	if f < 0 || f >= flagCount {
		return fmt.Sprintf("Flag(%d)", int(f))
	}
	return flagNames[f]
}

// AllFlags lists every flag in declaration order.
func AllFlags() []Flag {
	out := make([]Flag, 0, flagCount)
	for f := Flag(0); f < flagCount; f++ {
		out = append(out, f)
	}
	return out
}

// ParseFlag accepts the JSON name ("isOnSale") or its short form ("onsale").
func ParseFlag(s string) (Flag, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for f, name := range flagNames {
		lower := strings.ToLower(name)
		if key == lower || key == strings.TrimPrefix(lower, "is") {
			return Flag(f), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFlag, s)
}

// FlagSet holds the product flags. The zero value has every flag off.
type FlagSet struct {
	on [flagCount]bool
}

// Has reports whether f is set.
func (s FlagSet) Has(f Flag) bool {
	if f < 0 || f >= flagCount {
		return false
	}
	return s.on[f]
}

// Count returns the number of true flags.
func (s FlagSet) Count() int {
	n := 0
	for _, v := range s.on {
		if v {
			n++
		}
	}
	return n
}

// Active returns the set flags in declaration order.
func (s FlagSet) Active() []Flag {
	var out []Flag
	for f, v := range s.on {
		if v {
			out = append(out, Flag(f))
		}
	}
	return out
}

// Toggle flips f and returns its new value. Turning on a flag while
// MaxActiveFlags are already on fails with ErrFlagLimit and changes nothing.
func (s *FlagSet) Toggle(f Flag) (bool, error) {
	if f < 0 || f >= flagCount {
		return false, fmt.Errorf("%w: %d", ErrUnknownFlag, int(f))
	}
	if s.on[f] {
		s.on[f] = false
		return false, nil
	}
	if s.Count() >= MaxActiveFlags {
		return false, ErrFlagLimit
	}
	s.on[f] = true
	return true, nil
}

func (s FlagSet) MarshalJSON() ([]byte, error) {
	m := make(map[string]bool, flagCount)
	for f, name := range flagNames {
		m[name] = s.on[f]
	}
	return json.Marshal(m)
}

func (s *FlagSet) UnmarshalJSON(data []byte) error {
	var m map[string]bool
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	var next FlagSet
	for name, v := range m {
		f, err := ParseFlag(name)
		if err != nil {
			return err
		}
		next.on[f] = v
	}
	if next.Count() > MaxActiveFlags {
		return ErrFlagLimit
	}
	*s = next
	return nil
}

func (s FlagSet) String() string {
	active := s.Active()
	names := make([]string, 0, len(active))
	for _, f := range active {
		names = append(names, f.String())
	}
	return "[" + strings.Join(names, " ") + "]"
}
