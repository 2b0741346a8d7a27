package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/quantprep/challenge-service/internal/models"
)

//go:embed data/questions.json
var seedData []byte

// Load builds the catalog from the embedded seed data.
func Load() (*Catalog, error) {
	return LoadJSON(seedData)
}

// LoadJSON builds a catalog from a JSON array of questions.
func LoadJSON(data []byte) (*Catalog, error) {
	var questions []models.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("failed to parse question data: %w", err)
	}
	return New(questions)
}
