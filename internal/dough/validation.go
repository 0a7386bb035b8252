package dough

import (
	"fmt"
	"strings"
)

// ValidationError collects multiple validation issues
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "invalid recipe: unknown validation error"
	}
	if len(e.Issues) == 1 {
		return e.Issues[0]
	}
	return "recipe validation errors: " + strings.Join(e.Issues, "; ")
}

func (e *ValidationError) Add(issue string) {
	e.Issues = append(e.Issues, issue)
}

func (e *ValidationError) Addf(format string, v ...any) {
	e.Add(fmt.Sprintf(format, v...))
}

func (e *ValidationError) HasIssues() bool {
	return len(e.Issues) > 0
}

// Accepted recipe ranges.
var (
	hydrationRange   = [2]float32{0.65, 0.90}
	saltRange        = [2]float32{0.0, 0.03}
	yeastRange       = [2]float32{0.10, 0.30}
	temperatureRange = [2]float32{0.0, 60.0}
)

func checkRange(err *ValidationError, field string, v float32, r [2]float32) {
	if v < r[0] || v > r[1] {
		err.Addf("%s %.3f out of range [%.3f, %.3f]", field, v, r[0], r[1])
	}
}

// ValidateRecipeConfig checks every field of a recipe and reports all
// problems at once.
func ValidateRecipeConfig(cfg RecipeConfig) error {
	err := &ValidationError{}

	if strings.TrimSpace(cfg.Name) == "" {
		err.Add("recipe name is required")
	}

	checkRange(err, "hydration", cfg.Hydration, hydrationRange)
	checkRange(err, "salt", cfg.Salt, saltRange)
	checkRange(err, "yeast", cfg.Yeast, yeastRange)
	checkRange(err, "temperature", cfg.Temperature, temperatureRange)

	if cfg.AutolyseTime < 0 {
		err.Add("autolyse_time must not be negative")
	}
	if cfg.FlourProteins < 0 {
		err.Add("flour_proteins must not be negative")
	}
	if cfg.Water < 0 {
		err.Add("water must not be negative")
	}
	if cfg.GluteninShare < 0 || cfg.GluteninShare > 1 {
		err.Addf("glutenin_share %.3f must be within [0, 1]", cfg.GluteninShare)
	}

	if err.HasIssues() {
		return err
	}
	return nil
}

// ValidateDimensions rejects domains that cannot hold a molecule.
func ValidateDimensions(width, height, depth float32) error {
	err := &ValidationError{}
	for _, d := range []struct {
		name string
		v    float32
	}{{"width", width}, {"height", height}, {"depth", depth}} {
		if d.v <= 0 {
			err.Addf("%s must be positive, got %.1f", d.name, d.v)
		}
	}
	if err.HasIssues() {
		return err
	}
	return nil
}
