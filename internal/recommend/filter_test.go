package recommend

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"foodseer-bot/internal/models"
)

func TestBudgetCeiling(t *testing.T) {
	testCases := []struct {
		tier    string
		ceiling float64
	}{
		{"budget", 10},
		{"moderate", 20},
		{"premium", 35},
		{"BUDGET", 10},
		{"", math.Inf(1)},
		{"unlimited", math.Inf(1)},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.ceiling, BudgetCeiling(tc.tier), "tier %q", tc.tier)
	}
}

func TestAllergenSafe(t *testing.T) {
	food := models.Food{FoodName: "Peanut Cookie", Allergies: []string{"Peanuts", "Gluten"}}

	assert.True(t, AllergenSafe(food, nil))
	assert.True(t, AllergenSafe(food, []string{"dairy"}))
	assert.False(t, AllergenSafe(food, []string{"peanuts"}))
	assert.False(t, AllergenSafe(food, []string{"GLUTEN"}))
	assert.True(t, AllergenSafe(models.Food{FoodName: "Water"}, []string{"peanuts"}))
}

func TestFilterBudgetAndAllergies(t *testing.T) {
	foods := []models.Food{
		{ID: 1, FoodName: "Coffee", Price: 4, Amount: 10},
		{ID: 2, FoodName: "Steak", Price: 28, Amount: 5},
		{ID: 3, FoodName: "Peanut Bar", Price: 3, Amount: 7, Allergies: []string{"peanuts"}},
		{ID: 4, FoodName: "Salad", Price: 9, Amount: 0},
	}

	prefs := models.Preferences{
		Budget:              "budget",
		DietaryRestrictions: []byte(`["Peanuts"]`),
	}

	filtered := Filter(foods, prefs, false)
	assert.Len(t, filtered, 2)
	assert.Equal(t, int64(1), filtered[0].ID)
	assert.Equal(t, int64(4), filtered[1].ID)

	inStock := Filter(foods, prefs, true)
	assert.Len(t, inStock, 1)
	assert.Equal(t, int64(1), inStock[0].ID)
}

func TestFilterNoPreferencesKeepsEverything(t *testing.T) {
	foods := []models.Food{
		{ID: 1, FoodName: "Steak", Price: 28, Amount: 5, Allergies: []string{"none"}},
		{ID: 2, FoodName: "Cake", Price: 6, Amount: 3, Allergies: []string{"gluten", "dairy"}},
	}

	filtered := Filter(foods, models.Preferences{}, false)
	assert.Equal(t, foods, filtered)
}

func TestFilterIsStableAndIdempotent(t *testing.T) {
	foods := []models.Food{
		{ID: 3, FoodName: "Tea", Price: 3, Amount: 1},
		{ID: 1, FoodName: "Juice", Price: 5, Amount: 2},
		{ID: 2, FoodName: "Soup", Price: 7, Amount: 4},
	}
	prefs := models.Preferences{Budget: "budget"}

	once := Filter(foods, prefs, true)
	twice := Filter(once, prefs, true)

	assert.Equal(t, []int64{3, 1, 2}, foodIDs(once))
	assert.Equal(t, once, twice)
}

func TestFilterMalformedDietaryRestrictions(t *testing.T) {
	foods := []models.Food{
		{ID: 1, FoodName: "Peanut Bar", Price: 3, Amount: 7, Allergies: []string{"peanuts"}},
	}

	// Garbage restriction payloads mean no restrictions, not an error.
	prefs := models.Preferences{DietaryRestrictions: []byte(`{broken`)}
	assert.Len(t, Filter(foods, prefs, false), 1)
}

func TestPreferencesAllergiesDoubleEncoded(t *testing.T) {
	prefs := models.Preferences{DietaryRestrictions: []byte(`"[\"peanuts\",\"dairy\"]"`)}
	assert.Equal(t, []string{"peanuts", "dairy"}, prefs.Allergies())
}

func foodIDs(foods []models.Food) []int64 {
	ids := make([]int64, 0, len(foods))
	for _, f := range foods {
		ids = append(ids, f.ID)
	}
	return ids
}
