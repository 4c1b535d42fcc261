package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"foodseer-bot/internal/api"
	"foodseer-bot/internal/models"
	"foodseer-bot/internal/recommend"
)

// handleBrowseFoods lists the in-stock foods that fit the user's budget
// and allergy preferences.
func (t *TelegramBot) handleBrowseFoods(ctx context.Context, chatID int64, sess *session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	user, err := t.api.CurrentUser(ctx, sess.Token)
	if err != nil {
		t.logger.Error("Failed to refresh profile", "error", err)
		t.sendText(chatID, "Sorry, something went wrong.")
		return
	}
	sess.User = user

	foods, err := t.api.Foods(ctx, sess.Token)
	if err != nil {
		t.logger.Error("Failed to fetch foods", "error", err)
		t.sendText(chatID, "Sorry, something went wrong.")
		return
	}

	filtered := recommend.Filter(foods, user.Preferences, true)
	if len(filtered) == 0 {
		t.sendText(chatID, "No foods match your preferences right now. Loosen them with /prefs?")
		return
	}

	t.sendText(chatID, fmt.Sprintf("🍽 %d foods fit your preferences:", len(filtered)))
	for _, food := range filtered {
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🛒 Add to Cart", cartAddData(food.ID)),
			),
		)
		t.sendWithKeyboard(chatID, formatFoodCard(food), keyboard)
	}
}

func cartAddData(foodID int64) string {
	return fmt.Sprintf("cart:add:%d", foodID)
}

func (t *TelegramBot) handleCartCallback(ctx context.Context, chatID int64, sess *session, args []string) {
	if !sess.loggedIn() {
		t.sendText(chatID, "You need to /login first.")
		return
	}
	if len(args) == 0 {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch args[0] {
	case "add":
		if len(args) != 2 {
			return
		}
		foodID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return
		}
		t.addToCart(ctx, chatID, sess, foodID)

	case "rm":
		if len(args) != 2 {
			return
		}
		foodID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return
		}
		if qty, ok := sess.Cart[foodID]; ok {
			if qty > 1 {
				sess.Cart[foodID] = qty - 1
			} else {
				delete(sess.Cart, foodID)
				delete(sess.CartFoods, foodID)
			}
		}
		t.showCartLocked(chatID, sess)

	case "clear":
		sess.Cart = make(map[int64]int)
		sess.CartFoods = make(map[int64]models.Food)
		t.sendText(chatID, "🧹 Cart cleared.")

	case "checkout":
		if cartTotalItems(sess.Cart) == 0 {
			t.sendText(chatID, "Your cart is empty. Add items before placing an order.")
			return
		}
		sess.Flow = flowOrderName
		t.sendText(chatID, "What should we call this order? (e.g. Lunch Order)")
	}
}

// addToCart verifies the food is still in stock before adding; quantity
// is capped at the available amount.
func (t *TelegramBot) addToCart(ctx context.Context, chatID int64, sess *session, foodID int64) {
	food, err := t.api.FoodByID(ctx, sess.Token, foodID)
	if err != nil {
		t.logger.Error("Failed to fetch food for cart", "error", err, "food_id", foodID)
		t.sendText(chatID, "Sorry, something went wrong.")
		return
	}
	if food.Amount <= 0 {
		t.sendText(chatID, fmt.Sprintf("⚠️ Sorry, %s is currently out of stock.", food.FoodName))
		return
	}
	if sess.Cart[foodID] >= food.Amount {
		t.sendText(chatID, fmt.Sprintf("Only %d of %s in stock.", food.Amount, food.FoodName))
		return
	}

	sess.Cart[foodID]++
	sess.CartFoods[foodID] = *food
	t.sendText(chatID, fmt.Sprintf("✅ %s has been added to your cart! (/cart to check out)", food.FoodName))
}

func (t *TelegramBot) handleShowCart(chatID int64, sess *session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	t.showCartLocked(chatID, sess)
}

func (t *TelegramBot) showCartLocked(chatID int64, sess *session) {
	if cartTotalItems(sess.Cart) == 0 {
		t.sendText(chatID, "Your cart is empty. Browse /foods or take the /quiz!")
		return
	}

	var lines []string
	lines = append(lines, "🛒 Your Cart")
	var rows [][]tgbotapi.InlineKeyboardButton
	for foodID, qty := range sess.Cart {
		food := sess.CartFoods[foodID]
		lines = append(lines, fmt.Sprintf("• %s — $%.2f × %d = $%.2f",
			food.FoodName, food.Price, qty, food.Price*float64(qty)))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➖ "+food.FoodName, fmt.Sprintf("cart:rm:%d", foodID)),
			tgbotapi.NewInlineKeyboardButtonData("➕", cartAddData(foodID)),
		))
	}
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("Items: %d", cartTotalItems(sess.Cart)))
	lines = append(lines, fmt.Sprintf("Total: $%.2f", cartTotalPrice(sess.Cart, sess.CartFoods)))

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Place Order", "cart:checkout"),
		tgbotapi.NewInlineKeyboardButtonData("🧹 Clear", "cart:clear"),
	))

	t.sendWithKeyboard(chatID, strings.Join(lines, "\n"), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// handleOrderNameInput finishes checkout: an order needs a non-empty
// name and a non-empty cart before anything is sent to the server.
func (t *TelegramBot) handleOrderNameInput(ctx context.Context, chatID int64, sess *session, text string) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if strings.TrimSpace(text) == "" {
		t.sendText(chatID, "Please enter a name for your order.")
		return
	}
	if cartTotalItems(sess.Cart) == 0 {
		sess.Flow = flowNone
		t.sendText(chatID, "Your cart is empty. Add items before placing an order.")
		return
	}
	sess.Flow = flowNone

	var refs []api.OrderFoodRef
	for foodID, qty := range sess.Cart {
		for i := 0; i < qty; i++ {
			refs = append(refs, api.OrderFoodRef{ID: foodID})
		}
	}

	order, err := t.api.CreateOrder(ctx, sess.Token, api.OrderRequest{
		Name:  strings.TrimSpace(text),
		Foods: refs,
	})
	if err != nil {
		t.logger.Error("Failed to create order", "error", err)
		t.sendText(chatID, "Failed to create order. Please try again.")
		return
	}

	sess.Cart = make(map[int64]int)
	sess.CartFoods = make(map[int64]models.Food)
	t.sendText(chatID, fmt.Sprintf("🎉 Order \"%s\" placed successfully! Track it with /orders.", order.Name))
}

// handleMyOrders lists the user's orders; items of fulfilled orders get
// rating buttons.
func (t *TelegramBot) handleMyOrders(ctx context.Context, chatID int64, sess *session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	orders, err := t.api.MyOrders(ctx, sess.Token)
	if err != nil {
		t.logger.Error("Failed to fetch orders", "error", err)
		t.sendText(chatID, "Sorry, something went wrong.")
		return
	}
	if len(orders) == 0 {
		t.sendText(chatID, "No orders yet. Browse /foods to place your first one!")
		return
	}

	for _, order := range orders {
		status := "⏳ In progress"
		if order.IsFulfilled {
			status = "✅ Fulfilled"
		}
		text := fmt.Sprintf("📦 %s\n%s — %d items — $%.2f",
			order.Name, status, len(order.Foods), order.Total())

		if !order.IsFulfilled {
			t.sendText(chatID, text)
			continue
		}

		var rows [][]tgbotapi.InlineKeyboardButton
		seen := make(map[int64]bool)
		for _, food := range order.Foods {
			if seen[food.ID] {
				continue
			}
			seen[food.ID] = true
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(ratingRow(order.ID, food)...))
		}
		t.sendWithKeyboard(chatID, text+"\n\nRate your items:", tgbotapi.NewInlineKeyboardMarkup(rows...))
	}
}

func ratingRow(orderID int64, food models.Food) []tgbotapi.InlineKeyboardButton {
	name := food.FoodName
	if len(name) > 14 {
		name = name[:13] + "…"
	}
	buttons := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData(name, fmt.Sprintf("rate:%d:%d:0", orderID, food.ID)),
	}
	for n := 1; n <= 5; n++ {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%d⭐", n), fmt.Sprintf("rate:%d:%d:%d", orderID, food.ID, n)))
	}
	return buttons
}

func (t *TelegramBot) handleRateCallback(ctx context.Context, chatID int64, sess *session, args []string) {
	if !sess.loggedIn() || len(args) != 3 {
		return
	}
	orderID, err1 := strconv.ParseInt(args[0], 10, 64)
	foodID, err2 := strconv.ParseInt(args[1], 10, 64)
	rating, err3 := strconv.Atoi(args[2])
	if err1 != nil || err2 != nil || err3 != nil || rating < 1 || rating > 5 {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := t.api.RateFood(ctx, sess.Token, orderID, foodID, rating); err != nil {
		if errors.Is(err, api.ErrAlreadyRated) {
			t.sendText(chatID, "⚠️ You have already rated this item.")
			return
		}
		t.logger.Error("Failed to submit rating", "error", err)
		t.sendText(chatID, "Sorry, something went wrong.")
		return
	}
	t.sendText(chatID, fmt.Sprintf("⭐ Thanks! Your %d-star rating was recorded.", rating))
}

// --- formatting helpers ---

func formatFoodCard(food models.Food) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n💵 $%.2f\n", food.FoodName, food.Price)
	if food.Rating > 0 {
		fmt.Fprintf(&b, "%s %.1f (%d reviews)\n", renderStars(food.Rating), food.Rating, food.NumberOfRatings)
	} else {
		b.WriteString("No ratings yet\n")
	}
	fmt.Fprintf(&b, "📦 In stock: %d", food.Amount)
	if len(food.Allergies) > 0 {
		fmt.Fprintf(&b, "\n⚠️ Contains: %s", joinComma(food.Allergies))
	}
	return b.String()
}

func renderStars(rating float64) string {
	var b strings.Builder
	for star := 1; star <= 5; star++ {
		if rating >= float64(star) {
			b.WriteString("★")
		} else {
			b.WriteString("☆")
		}
	}
	return b.String()
}

func joinComma(items []string) string {
	return strings.Join(items, ", ")
}

func cartTotalItems(cart map[int64]int) int {
	total := 0
	for _, qty := range cart {
		total += qty
	}
	return total
}

func cartTotalPrice(cart map[int64]int, foods map[int64]models.Food) float64 {
	var total float64
	for foodID, qty := range cart {
		total += foods[foodID].Price * float64(qty)
	}
	return total
}
