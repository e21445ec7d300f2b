package id

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator creates opaque IDs for correlating requests across services.
type Generator interface {
	NewID() (string, error)
}

type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	v, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}

	return v.String(), nil
}

// Valid reports whether value looks like an ID produced by a Generator or an
// upstream proxy, so inbound request IDs can be trusted for log correlation.
func Valid(value string) bool {
	if value == "" || len(value) > 64 {
		return false
	}
	if _, err := uuid.Parse(value); err == nil {
		return true
	}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
