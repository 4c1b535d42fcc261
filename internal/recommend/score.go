package recommend

import (
	"sort"
	"strings"

	"foodseer-bot/internal/models"
)

// TopN is how many recommendations the scorer returns at most.
const TopN = 5

// Scored is a food annotated with its quiz match score.
type Scored struct {
	models.Food
	Score int
}

// keywordRule awards Weight when any keyword is a case-insensitive
// substring of the food name. An empty keyword list awards Weight
// unconditionally (the "medium"/"anytime" flat bonuses).
type keywordRule struct {
	Keywords []string
	Weight   int
}

// scoringTable maps quiz dimension -> chosen answer -> rule. Dimensions
// are independent and additive; a food can match several at once.
var scoringTable = map[string]map[string]keywordRule{
	"category": {
		"beverage": {Keywords: []string{"coffee", "juice", "tea", "smoothie"}, Weight: 3},
		"sweet":    {Keywords: []string{"cake", "yogurt", "cream", "cookie"}, Weight: 3},
		"savory":   {Keywords: []string{"sandwich", "steak", "pasta", "pizza", "sushi", "burrito", "soup"}, Weight: 3},
		"snack":    {Keywords: []string{"chips", "pretzel", "trail mix", "bar"}, Weight: 3},
	},
	"filling": {
		"light":  {Keywords: []string{"salad", "yogurt", "juice", "fruit"}, Weight: 2},
		"heavy":  {Keywords: []string{"steak", "pizza", "burrito", "pasta", "burger"}, Weight: 2},
		"medium": {Weight: 1},
	},
	"temperature": {
		"hot":  {Keywords: []string{"coffee", "soup", "tea", "steak", "pizza"}, Weight: 2},
		"cold": {Keywords: []string{"cream", "juice", "salad", "sushi", "smoothie"}, Weight: 2},
		"room": {Keywords: []string{"sandwich", "chips", "pretzel"}, Weight: 2},
	},
	"timeOfDay": {
		"breakfast": {Keywords: []string{"coffee", "yogurt", "muffin", "bagel"}, Weight: 2},
		"lunch":     {Keywords: []string{"sandwich", "salad", "soup"}, Weight: 2},
		"dinner":    {Keywords: []string{"steak", "pasta", "pizza", "sushi"}, Weight: 2},
		"anytime":   {Weight: 1},
	},
	"flavor": {
		"rich":   {Keywords: []string{"cake", "steak", "cream", "chocolate", "cheese"}, Weight: 2},
		"fresh":  {Keywords: []string{"salad", "fruit", "juice", "smoothie", "sushi"}, Weight: 2},
		"savory": {Keywords: []string{"steak", "pizza", "soup", "chips"}, Weight: 2},
		"sweet":  {Keywords: []string{"cake", "yogurt", "cookie"}, Weight: 2},
	},
}

func (r keywordRule) score(name string) int {
	if len(r.Keywords) == 0 {
		return r.Weight
	}
	for _, kw := range r.Keywords {
		if strings.Contains(name, kw) {
			return r.Weight
		}
	}
	return 0
}

// scoreFood computes the additive match score of one food name against a
// completed answer set.
func scoreFood(foodName string, answers map[string]string) int {
	name := strings.ToLower(foodName)
	total := 0
	for dimension, byAnswer := range scoringTable {
		answer, ok := answers[dimension]
		if !ok {
			continue
		}
		rule, ok := byAnswer[answer]
		if !ok {
			continue
		}
		total += rule.score(name)
	}
	return total
}

// Recommend scores the candidate foods against the quiz answers and
// returns the top matches in descending score order, ties broken by
// catalog order. Foods carrying any of the user's allergens are dropped
// both before scoring and again after truncation. If nothing scores
// above zero the first TopN safe foods are returned instead; the result
// is empty only when no safe food exists.
func Recommend(foods []models.Food, allergies []string, answers map[string]string) []Scored {
	safe := make([]models.Food, 0, len(foods))
	for _, food := range foods {
		if AllergenSafe(food, allergies) {
			safe = append(safe, food)
		}
	}

	scored := make([]Scored, 0, len(safe))
	for _, food := range safe {
		scored = append(scored, Scored{Food: food, Score: scoreFood(food.FoodName, answers)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	top := scored
	if len(top) > TopN {
		top = top[:TopN]
	}

	result := make([]Scored, 0, len(top))
	for _, s := range top {
		if s.Score <= 0 {
			continue
		}
		// Re-verify allergens on the way out; an unsafe item is dropped
		// rather than surfaced.
		if !AllergenSafe(s.Food, allergies) {
			continue
		}
		result = append(result, s)
	}

	if len(result) == 0 {
		for _, food := range safe {
			if len(result) == TopN {
				break
			}
			result = append(result, Scored{Food: food})
		}
	}
	return result
}
