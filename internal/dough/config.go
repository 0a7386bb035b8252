package dough

import (
	"encoding/json"
	"fmt"
	"os"
)

// RecipeConfig describes the dough a simulation is initialised with.
// Percentages are fractions of flour weight (0.72 = 72%).
type RecipeConfig struct {
	Name          string  `json:"name"`
	Hydration     float32 `json:"hydration"`
	Salt          float32 `json:"salt"`
	Yeast         float32 `json:"yeast"`
	AutolyseTime  float32 `json:"autolyse_time"`
	Temperature   float32 `json:"temperature"`
	FlourProteins int     `json:"flour_proteins"`
	Water         int     `json:"water"`
	// GluteninShare is the probability that a flour protein is glutenin.
	GluteninShare float32 `json:"glutenin_share"`
}

// DefaultRecipe returns the classic recipe: 72% hydration, 2% salt,
// 20% levain, 30 minutes of autolyse at 25°C.
func DefaultRecipe() RecipeConfig {
	return RecipeConfig{
		Name:          "classic",
		Hydration:     0.72,
		Salt:          0.02,
		Yeast:         0.20,
		AutolyseTime:  1800.0,
		Temperature:   25.0,
		FlourProteins: 200,
		Water:         200,
		GluteninShare: 0.6,
	}
}

// LoadRecipeFile reads a JSON recipe. Missing fields keep the classic
// defaults; the result is validated.
func LoadRecipeFile(path string) (RecipeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RecipeConfig{}, fmt.Errorf("reading recipe file: %w", err)
	}
	return DecodeRecipeJSON(data)
}

// DecodeRecipeJSON decodes a recipe on top of DefaultRecipe and validates it.
func DecodeRecipeJSON(data []byte) (RecipeConfig, error) {
	cfg := DefaultRecipe()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RecipeConfig{}, fmt.Errorf("parsing recipe JSON: %w", err)
	}
	if err := ValidateRecipeConfig(cfg); err != nil {
		return RecipeConfig{}, err
	}
	return cfg, nil
}
