// Package id generates and checks record identifiers.
package id

import (
	"fmt"

	"github.com/google/uuid"
)

// New returns a fresh random identifier.
func New() string {
	return uuid.New().String()
}

// Parse checks that s is a well-formed identifier and returns its canonical form.
func Parse(s string) (string, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid id %q: %w", s, err)
	}
	return u.String(), nil
}

// Valid reports whether s is a well-formed identifier.
func Valid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
