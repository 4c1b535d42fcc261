package recommend

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"foodseer-bot/internal/models"
)

func dinnerAnswers() map[string]string {
	return map[string]string{
		"category":    "savory",
		"filling":     "heavy",
		"temperature": "hot",
		"timeOfDay":   "dinner",
		"flavor":      "rich",
	}
}

func TestScoreFoodAdditive(t *testing.T) {
	// Steak hits every dinner dimension: 3+2+2+2+2.
	assert.Equal(t, 11, scoreFood("Grilled Steak", dinnerAnswers()))

	// Pizza misses only the rich flavor keywords: 3+2+2+2.
	assert.Equal(t, 9, scoreFood("Pepperoni Pizza", dinnerAnswers()))

	// No keyword overlap at all.
	assert.Equal(t, 0, scoreFood("Fruit Cup", dinnerAnswers()))
}

func TestScoreFoodFlatBonuses(t *testing.T) {
	answers := map[string]string{
		"filling":   "medium",
		"timeOfDay": "anytime",
	}
	// medium and anytime award their weight regardless of the name.
	assert.Equal(t, 2, scoreFood("Mystery Dish", answers))
}

func TestRecommendRanksByScore(t *testing.T) {
	foods := []models.Food{
		{ID: 1, FoodName: "Fruit Cup"},
		{ID: 2, FoodName: "Pepperoni Pizza"},
		{ID: 3, FoodName: "Grilled Steak"},
	}

	recs := Recommend(foods, nil, dinnerAnswers())
	assert.Len(t, recs, 2)
	assert.Equal(t, int64(3), recs[0].ID)
	assert.Equal(t, 11, recs[0].Score)
	assert.Equal(t, int64(2), recs[1].ID)

	// Fruit Cup scored zero and is excluded while positives exist.
	for _, rec := range recs {
		assert.Positive(t, rec.Score)
	}
}

func TestRecommendTruncatesToTopN(t *testing.T) {
	var foods []models.Food
	for i := 1; i <= 8; i++ {
		foods = append(foods, models.Food{ID: int64(i), FoodName: fmt.Sprintf("Steak %d", i)})
	}

	recs := Recommend(foods, nil, dinnerAnswers())
	assert.Len(t, recs, TopN)

	// Ties keep catalog order.
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, scoredIDs(recs))
}

func TestRecommendFallbackWhenNothingScores(t *testing.T) {
	foods := []models.Food{
		{ID: 1, FoodName: "Fruit Cup"},
		{ID: 2, FoodName: "Rice Bowl"},
	}

	recs := Recommend(foods, nil, dinnerAnswers())
	assert.Len(t, recs, 2)
	assert.Equal(t, []int64{1, 2}, scoredIDs(recs))
	for _, rec := range recs {
		assert.Zero(t, rec.Score)
	}
}

func TestRecommendExcludesAllergens(t *testing.T) {
	foods := []models.Food{
		{ID: 1, FoodName: "Cheese Steak", Allergies: []string{"dairy"}},
		{ID: 2, FoodName: "Grilled Steak"},
	}

	recs := Recommend(foods, []string{"Dairy"}, dinnerAnswers())
	assert.Len(t, recs, 1)
	assert.Equal(t, int64(2), recs[0].ID)
}

func TestRecommendEmptyWhenNoSafeFood(t *testing.T) {
	foods := []models.Food{
		{ID: 1, FoodName: "Peanut Bar", Allergies: []string{"peanuts"}},
	}

	assert.Empty(t, Recommend(foods, []string{"peanuts"}, dinnerAnswers()))
}

func TestQuestionsMatchScoringTable(t *testing.T) {
	assert.Equal(t, 5, NumQuestions())
	for _, q := range Questions() {
		byAnswer, ok := scoringTable[q.ID]
		assert.True(t, ok, "question %q has no scoring rules", q.ID)
		for _, opt := range q.Options {
			_, ok := byAnswer[opt.Value]
			assert.True(t, ok, "option %s/%s has no rule", q.ID, opt.Value)
		}
	}
}

func scoredIDs(recs []Scored) []int64 {
	ids := make([]int64, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	return ids
}
