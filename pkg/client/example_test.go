package client_test

import (
	"context"
	"fmt"

	"github.com/daniacca/doughsim/pkg/client"
)

func ExampleRecipeBuilder() {
	recipe := client.NewRecipe("high-hydration").
		Hydration(0.85).
		Salt(0.022).
		Temperature(24)

	cfg := recipe.Build()
	fmt.Printf("Recipe: %s\n", cfg.Name)
	fmt.Printf("Hydration: %.0f%%\n", cfg.Hydration*100)
	fmt.Printf("Valid: %v\n", recipe.Validate() == nil)
	// Output:
	// Recipe: high-hydration
	// Hydration: 85%
	// Valid: true
}

func ExampleClient_CreateSession() {
	ctx := context.Background()
	c := client.New("http://localhost:8080")
	recipe := client.NewRecipe("classic").Build()

	// This would create a session on a running server:
	// id, err := c.CreateSession(ctx, client.SessionOptions{Seed: 42, Recipe: &recipe})
	// if err != nil {
	// 	log.Fatal(err)
	// }
	// c.AddSalt(ctx, id)

	_ = ctx
	_ = c
	_ = recipe
}
