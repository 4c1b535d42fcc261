// Package recommend holds the client-side preference filter and the quiz
// driven recommendation scorer. Both are pure functions over food
// snapshots fetched from the platform API.
package recommend

import (
	"math"
	"strings"

	"foodseer-bot/internal/models"
)

// Budget tiers and their inclusive price ceilings. An unknown or empty
// tier means no limit.
const (
	BudgetTierBudget   = "budget"
	BudgetTierModerate = "moderate"
	BudgetTierPremium  = "premium"
)

// BudgetCeiling maps a budget tier to its maximum food price.
func BudgetCeiling(tier string) float64 {
	switch strings.ToLower(tier) {
	case BudgetTierBudget:
		return 10
	case BudgetTierModerate:
		return 20
	case BudgetTierPremium:
		return 35
	default:
		return math.Inf(1)
	}
}

// AllergenSafe reports whether the food's allergen set is disjoint from
// the user's allergy list. Both sides are lower-cased before comparing.
// An empty allergy list makes every food safe.
func AllergenSafe(food models.Food, allergies []string) bool {
	if len(allergies) == 0 || len(food.Allergies) == 0 {
		return true
	}
	for _, allergy := range allergies {
		for _, tag := range food.Allergies {
			if strings.EqualFold(tag, allergy) {
				return false
			}
		}
	}
	return true
}

// Filter retains foods within the user's budget ceiling whose allergen
// sets are disjoint from the allergy list. The filter is stable: output
// order is input order. When inStockOnly is set, out-of-stock items are
// dropped as well.
func Filter(foods []models.Food, prefs models.Preferences, inStockOnly bool) []models.Food {
	ceiling := BudgetCeiling(prefs.Budget)
	allergies := prefs.Allergies()

	filtered := make([]models.Food, 0, len(foods))
	for _, food := range foods {
		if inStockOnly && food.Amount <= 0 {
			continue
		}
		if food.Price > ceiling {
			continue
		}
		if !AllergenSafe(food, allergies) {
			continue
		}
		filtered = append(filtered, food)
	}
	return filtered
}
