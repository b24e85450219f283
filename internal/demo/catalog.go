package demo

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/csheth/candyrag/internal/catalog"
)

//go:embed candies.json
var candiesJSON []byte

// Catalog returns the bundled candies.
func Catalog() ([]catalog.Candy, error) {
	var candies []catalog.Candy
	if err := json.Unmarshal(candiesJSON, &candies); err != nil {
		return nil, fmt.Errorf("decode bundled catalog: %w", err)
	}
	return catalog.Dedupe(candies), nil
}
