package ids

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator mints connection handles. Handles are opaque to everything above the transport.
type Generator interface {
	NewID() (string, error)
}

type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate connection id: %w", err)
	}
	return id.String(), nil
}
