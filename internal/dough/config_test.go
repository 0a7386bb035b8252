package dough

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultRecipe_Valid(t *testing.T) {
	if err := ValidateRecipeConfig(DefaultRecipe()); err != nil {
		t.Fatalf("Expected default recipe to validate, got %v", err)
	}
}

func TestValidateRecipeConfig_Issues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RecipeConfig)
		want   string
	}{
		{"empty name", func(c *RecipeConfig) { c.Name = " " }, "name is required"},
		{"dry dough", func(c *RecipeConfig) { c.Hydration = 0.5 }, "hydration"},
		{"too salty", func(c *RecipeConfig) { c.Salt = 0.05 }, "salt"},
		{"too little levain", func(c *RecipeConfig) { c.Yeast = 0.05 }, "yeast"},
		{"oven hot", func(c *RecipeConfig) { c.Temperature = 90 }, "temperature"},
		{"negative autolyse", func(c *RecipeConfig) { c.AutolyseTime = -1 }, "autolyse_time"},
		{"negative proteins", func(c *RecipeConfig) { c.FlourProteins = -1 }, "flour_proteins"},
		{"negative water", func(c *RecipeConfig) { c.Water = -3 }, "water"},
		{"bad share", func(c *RecipeConfig) { c.GluteninShare = 1.5 }, "glutenin_share"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultRecipe()
			tt.mutate(&cfg)
			err := ValidateRecipeConfig(cfg)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Expected ValidationError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error about %q, got %v", tt.want, err)
			}
		})
	}
}

func TestValidateRecipeConfig_CollectsAll(t *testing.T) {
	cfg := DefaultRecipe()
	cfg.Hydration = 2
	cfg.Salt = 1
	err := ValidateRecipeConfig(cfg)

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Expected ValidationError, got %T", err)
	}
	if len(vErr.Issues) != 2 {
		t.Errorf("Expected 2 issues, got %d: %v", len(vErr.Issues), vErr.Issues)
	}
	if !strings.HasPrefix(err.Error(), "recipe validation errors:") {
		t.Errorf("Unexpected message: %v", err)
	}
}

func TestDecodeRecipeJSON(t *testing.T) {
	cfg, err := DecodeRecipeJSON([]byte(`{"name":"wet","hydration":0.85,"flour_proteins":50}`))
	if err != nil {
		t.Fatalf("DecodeRecipeJSON failed: %v", err)
	}
	if cfg.Name != "wet" || cfg.Hydration != 0.85 || cfg.FlourProteins != 50 {
		t.Errorf("Expected overrides applied, got %+v", cfg)
	}
	if cfg.Water != 200 || cfg.Salt != 0.02 {
		t.Errorf("Expected defaults kept for missing fields, got %+v", cfg)
	}

	if _, err := DecodeRecipeJSON([]byte(`{"hydration":0.1}`)); err == nil {
		t.Error("Expected validation error")
	}
	if _, err := DecodeRecipeJSON([]byte(`{not json`)); err == nil {
		t.Error("Expected parse error")
	}
}

func TestLoadRecipeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipe.json")
	if err := os.WriteFile(path, []byte(`{"name":"cold","temperature":18}`), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := LoadRecipeFile(path)
	if err != nil {
		t.Fatalf("LoadRecipeFile failed: %v", err)
	}
	if cfg.Name != "cold" || cfg.Temperature != 18 {
		t.Errorf("Unexpected recipe: %+v", cfg)
	}

	if _, err := LoadRecipeFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestValidateDimensions(t *testing.T) {
	if err := ValidateDimensions(1000, 720, 1000); err != nil {
		t.Errorf("Expected valid dimensions, got %v", err)
	}
	err := ValidateDimensions(0, -1, 10)
	var vErr *ValidationError
	if !errors.As(err, &vErr) || len(vErr.Issues) != 2 {
		t.Errorf("Expected 2 dimension issues, got %v", err)
	}
}
