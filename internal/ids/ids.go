package ids

import "github.com/segmentio/ksuid"

// New returns a fresh, time-ordered identifier.
func New() string {
	return ksuid.New().String()
}

// Valid reports whether s is a structurally valid identifier.
func Valid(s string) bool {
	if len(s) != 27 {
		return false
	}
	_, err := ksuid.Parse(s)
	return err == nil
}
