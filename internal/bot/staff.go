package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"foodseer-bot/internal/api"
	"foodseer-bot/internal/models"
)

// --- inventory management (staff) ---

func (t *TelegramBot) handleInventory(ctx context.Context, chatID int64, sess *session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	foods, err := t.api.Inventory(ctx, sess.Token)
	if err != nil {
		t.logger.Error("Failed to fetch inventory", "error", err)
		t.sendText(chatID, "Sorry, something went wrong.")
		return
	}
	if len(foods) == 0 {
		t.sendText(chatID, "Inventory is empty. Use /addfood to add the first item.")
		return
	}

	t.sendText(chatID, fmt.Sprintf("📋 Inventory — %d items", len(foods)))
	for _, food := range foods {
		text := fmt.Sprintf("%s\n💵 $%.2f · 📦 %d in stock", food.FoodName, food.Price, food.Amount)
		if len(food.Allergies) > 0 {
			text += "\n⚠️ " + joinComma(food.Allergies)
		}
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✏️ Set Stock", fmt.Sprintf("inv:set:%d", food.ID)),
				tgbotapi.NewInlineKeyboardButtonData("💲 Set Price", fmt.Sprintf("inv:price:%d", food.ID)),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("⚠️ Set Allergens", fmt.Sprintf("inv:alg:%d", food.ID)),
				tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", fmt.Sprintf("inv:del:%d", food.ID)),
			),
		)
		t.sendWithKeyboard(chatID, text, keyboard)
	}
}

func (t *TelegramBot) handleInventoryCallback(ctx context.Context, chatID int64, sess *session, args []string) {
	if !sess.isStaff() || len(args) != 2 {
		return
	}
	foodID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch args[0] {
	case "set":
		sess.Pending["food_id"] = args[1]
		sess.Flow = flowStockAmount
		t.sendText(chatID, "New stock amount:")

	case "price":
		sess.Pending["food_id"] = args[1]
		sess.Flow = flowFoodPrice
		t.sendText(chatID, "New price:")

	case "alg":
		sess.Pending["food_id"] = args[1]
		sess.Flow = flowFoodAllergens
		t.sendText(chatID, "Allergens, comma separated (or - for none):")

	case "del":
		if err := t.api.DeleteFood(ctx, sess.Token, foodID); err != nil {
			if api.IsConflict(err) {
				// The server explains why (part of unfulfilled orders).
				t.sendText(chatID, "⚠️ "+serverMessage(err))
				return
			}
			t.logger.Error("Failed to delete food", "error", err, "food_id", foodID)
			t.sendText(chatID, "Failed to delete food. Please try again.")
			return
		}
		t.sendText(chatID, "🗑 Food deleted.")
	}
}

func (t *TelegramBot) handleStockAmountInput(ctx context.Context, chatID int64, sess *session, text string) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	amount, err := strconv.Atoi(text)
	if err != nil || amount < 0 {
		t.sendText(chatID, "Please enter a non-negative whole number:")
		return
	}
	foodID, err := strconv.ParseInt(sess.Pending["food_id"], 10, 64)
	if err != nil {
		sess.Flow = flowNone
		return
	}
	sess.Flow = flowNone

	food, err := t.api.FoodByID(ctx, sess.Token, foodID)
	if err != nil {
		t.logger.Error("Failed to fetch food for stock update", "error", err, "food_id", foodID)
		t.sendText(chatID, "Sorry, something went wrong.")
		return
	}

	food.Amount = amount
	if _, err := t.api.UpdateInventory(ctx, sess.Token, *food); err != nil {
		t.logger.Error("Failed to update inventory", "error", err, "food_id", foodID)
		t.sendText(chatID, "Failed to update stock. Please try again.")
		return
	}
	t.sendText(chatID, fmt.Sprintf("✅ %s stock set to %d.", food.FoodName, amount))
}

func (t *TelegramBot) handleFoodPriceInput(ctx context.Context, chatID int64, sess *session, text string) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	price, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(text, "$")), 64)
	if err != nil || price < 0 {
		t.sendText(chatID, "Please enter a non-negative price:")
		return
	}
	foodID, err := strconv.ParseInt(sess.Pending["food_id"], 10, 64)
	if err != nil {
		sess.Flow = flowNone
		return
	}
	sess.Flow = flowNone

	food, err := t.api.FoodByID(ctx, sess.Token, foodID)
	if err != nil {
		t.logger.Error("Failed to fetch food for price update", "error", err, "food_id", foodID)
		t.sendText(chatID, "Sorry, something went wrong.")
		return
	}

	food.Price = price
	updated, err := t.api.UpdateFood(ctx, sess.Token, *food)
	if err != nil {
		t.logger.Error("Failed to update food price", "error", err, "food_id", foodID)
		t.sendText(chatID, "Failed to update price. Please try again.")
		return
	}
	t.sendText(chatID, fmt.Sprintf("✅ %s now costs $%.2f.", updated.FoodName, updated.Price))
}

func (t *TelegramBot) handleFoodAllergensInput(ctx context.Context, chatID int64, sess *session, text string) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	foodID, err := strconv.ParseInt(sess.Pending["food_id"], 10, 64)
	if err != nil {
		sess.Flow = flowNone
		return
	}
	sess.Flow = flowNone

	food, err := t.api.FoodByID(ctx, sess.Token, foodID)
	if err != nil {
		t.logger.Error("Failed to fetch food for allergen update", "error", err, "food_id", foodID)
		t.sendText(chatID, "Sorry, something went wrong.")
		return
	}

	food.Allergies = parseAllergenList(text)
	updated, err := t.api.UpdateFood(ctx, sess.Token, *food)
	if err != nil {
		t.logger.Error("Failed to update food allergens", "error", err, "food_id", foodID)
		t.sendText(chatID, "Failed to update allergens. Please try again.")
		return
	}
	if len(updated.Allergies) == 0 {
		t.sendText(chatID, fmt.Sprintf("✅ %s is now marked allergen-free.", updated.FoodName))
		return
	}
	t.sendText(chatID, fmt.Sprintf("✅ %s now lists: %s.", updated.FoodName, joinComma(updated.Allergies)))
}

// parseAllergenList splits a comma-separated allergen field; "-" and
// blank mean none.
func parseAllergenList(field string) []string {
	field = strings.TrimSpace(field)
	if field == "" || field == "-" {
		return nil
	}
	var allergies []string
	for _, a := range strings.Split(field, ",") {
		if trimmed := strings.TrimSpace(a); trimmed != "" {
			allergies = append(allergies, trimmed)
		}
	}
	return allergies
}

func (t *TelegramBot) startAddFood(chatID int64, sess *session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.Flow = flowFoodCreate
	t.sendText(chatID, "Send the new food as:\nname | price | amount | allergens (comma separated, or -)\n\nExample: Mushroom Soup | 8.50 | 20 | dairy")
}

func (t *TelegramBot) handleFoodCreateInput(ctx context.Context, chatID int64, sess *session, text string) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	parts := strings.Split(text, "|")
	if len(parts) != 4 {
		t.sendText(chatID, "That's not quite the format. Use: name | price | amount | allergens")
		return
	}
	name := strings.TrimSpace(parts[0])
	price, priceErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	amount, amountErr := strconv.Atoi(strings.TrimSpace(parts[2]))
	if name == "" || priceErr != nil || price < 0 || amountErr != nil || amount < 0 {
		t.sendText(chatID, "Name must be non-empty, price and amount non-negative. Try again:")
		return
	}

	allergies := parseAllergenList(parts[3])
	sess.Flow = flowNone

	created, err := t.api.CreateFood(ctx, sess.Token, models.Food{
		FoodName:  name,
		Price:     price,
		Amount:    amount,
		Allergies: allergies,
	})
	if err != nil {
		t.logger.Error("Failed to create food", "error", err)
		t.sendText(chatID, "Failed to create food. Please try again.")
		return
	}
	t.sendText(chatID, fmt.Sprintf("✅ %s added to the catalog.", created.FoodName))
}

// --- order fulfillment (staff) ---

func (t *TelegramBot) handleUnfulfilledOrders(ctx context.Context, chatID int64, sess *session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	orders, err := t.api.UnfulfilledOrders(ctx, sess.Token)
	if err != nil {
		t.logger.Error("Failed to fetch unfulfilled orders", "error", err)
		t.sendText(chatID, "Sorry, something went wrong.")
		return
	}
	if len(orders) == 0 {
		t.sendText(chatID, "🎉 No open orders — all caught up!")
		return
	}

	// Best effort; the open list is still useful without the summary.
	if fulfilled, err := t.api.FulfilledOrders(ctx, sess.Token); err == nil {
		t.sendText(chatID, fmt.Sprintf("%d open orders, %d fulfilled so far.", len(orders), len(fulfilled)))
	}

	for _, order := range orders {
		text := fmt.Sprintf("📦 %s\n%d items — $%.2f", order.Name, len(order.Foods), order.Total())
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Fulfill", fmt.Sprintf("fulfill:%d", order.ID)),
			),
		)
		t.sendWithKeyboard(chatID, text, keyboard)
	}
}

func (t *TelegramBot) handleFulfillCallback(ctx context.Context, chatID int64, sess *session, args []string) {
	if !sess.isStaff() || len(args) != 1 {
		return
	}
	orderID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := t.api.FulfillOrder(ctx, sess.Token, orderID); err != nil {
		t.logger.Error("Failed to fulfill order", "error", err, "order_id", orderID)
		t.sendText(chatID, "Failed to fulfill order. Please try again.")
		return
	}
	t.sendText(chatID, "✅ Order fulfilled.")
}

// --- user management (admin) ---

func (t *TelegramBot) handleUserManagement(ctx context.Context, chatID int64, sess *session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	users, err := t.api.Users(ctx, sess.Token)
	if err != nil {
		t.logger.Error("Failed to fetch users", "error", err)
		t.sendText(chatID, "Sorry, something went wrong.")
		return
	}

	t.sendText(chatID, fmt.Sprintf("👥 %d accounts", len(users)))
	for _, user := range users {
		text := fmt.Sprintf("%s (%s)\nRole: %s", user.Username, user.Email, user.Role)
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Customer", fmt.Sprintf("user:role:%d:%s", user.ID, models.RoleCustomer)),
				tgbotapi.NewInlineKeyboardButtonData("Staff", fmt.Sprintf("user:role:%d:%s", user.ID, models.RoleStaff)),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Driver", fmt.Sprintf("user:role:%d:%s", user.ID, models.RoleDriver)),
				tgbotapi.NewInlineKeyboardButtonData("Admin", fmt.Sprintf("user:role:%d:%s", user.ID, models.RoleAdmin)),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🗑 Delete account", fmt.Sprintf("user:del:%d", user.ID)),
			),
		)
		t.sendWithKeyboard(chatID, text, keyboard)
	}
}

func (t *TelegramBot) handleUserCallback(ctx context.Context, chatID int64, sess *session, args []string) {
	if !sess.isAdmin() || len(args) < 2 {
		return
	}
	userID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch args[0] {
	case "role":
		if len(args) != 3 {
			return
		}
		if err := t.api.UpdateUserRole(ctx, sess.Token, userID, args[2]); err != nil {
			t.logger.Error("Failed to update user role", "error", err, "user_id", userID)
			t.sendText(chatID, "Failed to update role. Please try again.")
			return
		}
		t.sendText(chatID, fmt.Sprintf("✅ Role changed to %s.", args[2]))

	case "del":
		if err := t.api.DeleteUser(ctx, sess.Token, userID); err != nil {
			t.logger.Error("Failed to delete user", "error", err, "user_id", userID)
			t.sendText(chatID, "Failed to delete user. Please try again.")
			return
		}
		t.sendText(chatID, "🗑 Account deleted.")
	}
}

// --- driver dashboard ---

func (t *TelegramBot) handleDriverDashboard(ctx context.Context, chatID int64, sess *session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	stats, err := t.api.DriverStats(ctx, sess.User.Username)
	if err != nil {
		t.logger.Error("Failed to fetch driver stats", "error", err)
		t.sendText(chatID, "Sorry, something went wrong.")
		return
	}

	t.sendText(chatID, fmt.Sprintf(
		"🚗 Driver Dashboard\n\nTotal deliveries: %d\nToday's earnings: $%.2f\nAverage rating: %.1f ⭐\nActive orders: %d",
		stats.TotalDeliveries, stats.TotalEarning, stats.AverageRating, stats.ActiveOrders))

	orders, err := t.api.UnfulfilledOrders(ctx, sess.Token)
	if err != nil {
		t.logger.Error("Failed to fetch assigned orders", "error", err)
		t.sendText(chatID, "Sorry, something went wrong.")
		return
	}
	if len(orders) == 0 {
		t.sendText(chatID, "No assigned orders right now.")
		return
	}

	for _, order := range orders {
		label := "📦 Mark as Picked Up"
		if sess.PickedUp[order.ID] {
			label = "🚚 Mark as Delivered"
		}
		text := fmt.Sprintf("📦 %s — %d items", order.Name, len(order.Foods))
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("driver:%d", order.ID)),
			),
		)
		t.sendWithKeyboard(chatID, text, keyboard)
	}
}

// handleDriverCallback advances an order through pickup and delivery.
// Pickup is tracked locally; only delivery hits the server.
func (t *TelegramBot) handleDriverCallback(ctx context.Context, chatID int64, sess *session, args []string) {
	if !sess.isDriver() || len(args) != 1 {
		return
	}
	orderID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !sess.PickedUp[orderID] {
		sess.PickedUp[orderID] = true
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🚚 Mark as Delivered", fmt.Sprintf("driver:%d", orderID)),
			),
		)
		t.sendWithKeyboard(chatID, "📦 Order picked up. Safe travels!", keyboard)
		return
	}

	if _, err := t.api.UpdateOrderStatus(ctx, sess.Token, orderID); err != nil {
		t.logger.Error("Failed to update order status", "error", err, "order_id", orderID)
		t.sendText(chatID, "Failed to update order status. Please try again.")
		return
	}
	delete(sess.PickedUp, orderID)
	t.sendText(chatID, "🎉 Delivery recorded. Nice work!")
}
