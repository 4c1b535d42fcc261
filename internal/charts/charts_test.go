package charts

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodseer-bot/internal/models"
)

func catalog() []models.Food {
	return []models.Food{
		{ID: 1, FoodName: "Coffee", Price: 4, Amount: 30, Rating: 4.8},
		{ID: 2, FoodName: "Steak", Price: 28, Amount: 5, Rating: 4.2, Allergies: []string{"none"}},
		{ID: 3, FoodName: "Peanut Bar", Price: 3, Amount: 12, Allergies: []string{"peanuts", "gluten"}},
		{ID: 4, FoodName: "Cheese Pizza", Price: 14, Amount: 20, Rating: 4.5, Allergies: []string{"gluten", "dairy"}},
	}
}

func TestAllergyBreakdown(t *testing.T) {
	s := AllergyBreakdown(catalog())

	// Labels appear in first-seen order.
	assert.Equal(t, []string{"none", "peanuts", "gluten", "dairy"}, s.Labels)
	assert.Equal(t, []float64{1, 1, 2, 1}, s.Values)
}

func TestTopRated(t *testing.T) {
	s := TopRated(catalog(), 2)

	assert.Equal(t, []string{"Coffee", "Cheese Pizza"}, s.Labels)
	assert.Equal(t, []float64{4.8, 4.5}, s.Values)
}

func TestTopRatedSkipsUnrated(t *testing.T) {
	s := TopRated(catalog(), 10)
	assert.NotContains(t, s.Labels, "Peanut Bar")
	assert.Len(t, s.Labels, 3)
}

func TestStockLevelsFlagsLowStock(t *testing.T) {
	s := StockLevels(catalog())

	assert.Equal(t, []float64{30, 5, 12, 20}, s.Values)
	assert.Equal(t, "#4BC0C0", s.Colors[0])
	assert.Equal(t, "#FF6384", s.Colors[1], "5 in stock is low")
	assert.Equal(t, "#FF6384", s.Colors[2], "12 in stock is below the threshold")
	assert.Equal(t, "#4BC0C0", s.Colors[3])
}

func TestStockValue(t *testing.T) {
	s := StockValue(catalog())
	assert.Equal(t, []float64{120, 140, 36, 280}, s.Values)
}

func TestRenderProducesDecodablePNG(t *testing.T) {
	data, err := Render(StockLevels(catalog()))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 480, img.Bounds().Dy())
	assert.GreaterOrEqual(t, img.Bounds().Dx(), 640)
}

func TestRenderRejectsEmptySeries(t *testing.T) {
	_, err := Render(Series{Title: "Empty"})
	assert.Error(t, err)
}
