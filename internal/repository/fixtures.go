package repository

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/yourusername/predictive-punter/internal/models"
)

// LoadFixtures reads a JSON array of meets, with nested races and runners, into a new memory store
func LoadFixtures(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}

	var meets []*models.Meet
	if err := json.Unmarshal(data, &meets); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}

	store := NewMemoryStore()
	for _, meet := range meets {
		store.AddMeet(meet)
	}
	return store, nil
}
