package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"foodseer-bot/internal/models"
)

func TestMatchFoods(t *testing.T) {
	foods := []models.Food{
		{ID: 1, FoodName: "Chili Soup"},
		{ID: 2, FoodName: "Steak"},
		{ID: 3, FoodName: ""},
	}

	matched := matchFoods(foods, "How about our famous chili soup or a juicy STEAK?")
	assert.Len(t, matched, 2)
	assert.Equal(t, int64(1), matched[0].ID)
	assert.Equal(t, int64(2), matched[1].ID)

	assert.Empty(t, matchFoods(foods, "nothing on the menu matches"))
}

func TestCartTotals(t *testing.T) {
	cart := map[int64]int{1: 2, 2: 1}
	foods := map[int64]models.Food{
		1: {ID: 1, FoodName: "Coffee", Price: 4.5},
		2: {ID: 2, FoodName: "Steak", Price: 28},
	}

	assert.Equal(t, 3, cartTotalItems(cart))
	assert.InDelta(t, 37.0, cartTotalPrice(cart, foods), 0.001)

	assert.Zero(t, cartTotalItems(nil))
	assert.Zero(t, cartTotalPrice(nil, nil))
}

func TestRenderStars(t *testing.T) {
	assert.Equal(t, "★★★★☆", renderStars(4.2))
	assert.Equal(t, "★★★★★", renderStars(5))
	assert.Equal(t, "☆☆☆☆☆", renderStars(0.5))
}

func TestFormatFoodCard(t *testing.T) {
	card := formatFoodCard(models.Food{
		FoodName:        "Cheese Pizza",
		Price:           14,
		Amount:          20,
		Rating:          4.5,
		NumberOfRatings: 12,
		Allergies:       []string{"gluten", "dairy"},
	})

	assert.Contains(t, card, "Cheese Pizza")
	assert.Contains(t, card, "$14.00")
	assert.Contains(t, card, "4.5 (12 reviews)")
	assert.Contains(t, card, "In stock: 20")
	assert.Contains(t, card, "gluten, dairy")

	unrated := formatFoodCard(models.Food{FoodName: "Water", Price: 1})
	assert.Contains(t, unrated, "No ratings yet")
}

func TestChartFileName(t *testing.T) {
	assert.Equal(t, "stock-value.png", chartFileName("Stock Value ($)"))
	assert.Equal(t, "top-rated-foods.png", chartFileName("Top Rated Foods"))
}

func TestSessionRoles(t *testing.T) {
	sess := newSession()
	assert.False(t, sess.loggedIn())
	assert.False(t, sess.isStaff())

	sess.Token = "tok"
	sess.User = &models.User{Role: models.RoleStaff}
	assert.True(t, sess.loggedIn())
	assert.True(t, sess.isStaff())
	assert.False(t, sess.isAdmin())
	assert.False(t, sess.isDriver())

	sess.User.Role = models.RoleAdmin
	assert.True(t, sess.isStaff(), "admins can do everything staff can")
	assert.True(t, sess.isAdmin())
}

func TestParseAllergenList(t *testing.T) {
	assert.Nil(t, parseAllergenList("-"))
	assert.Nil(t, parseAllergenList("  "))
	assert.Equal(t, []string{"peanuts", "dairy"}, parseAllergenList(" peanuts, dairy ,"))
}

func TestCartAddData(t *testing.T) {
	assert.Equal(t, "cart:add:42", cartAddData(42))
}
