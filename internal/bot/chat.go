package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"foodseer-bot/internal/models"
	"foodseer-bot/internal/recommend"
	"foodseer-bot/internal/state"
)

// resumeChat replays the persisted conversation tail so the user can
// pick up where they left off.
func (t *TelegramBot) resumeChat(ctx context.Context, chatID int64, sess *session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	key := state.Key{Feature: state.FeatureChatbot, UserID: sess.User.ID}
	snap := t.loadState(ctx, key)

	if len(snap.State.Messages) <= 1 {
		t.sendText(chatID, state.ChatGreeting)
		return
	}

	t.sendText(chatID, "Picking up where we left off:")
	start := len(snap.State.Messages) - 4
	if start < 0 {
		start = 0
	}
	for _, msg := range snap.State.Messages[start:] {
		switch {
		case msg.Content == state.ContentRecommendationCard && msg.Food != nil:
			t.sendRecommendationCard(chatID, *msg.Food)
		case msg.Role == state.RoleUser:
			t.sendText(chatID, "👤 "+msg.Content)
		default:
			t.sendText(chatID, "🤖 "+msg.Content)
		}
	}
}

// handleChatMessage runs one chatbot turn: forward the message to the
// platform's chat endpoint, match food names in the reply, and answer
// with recommendation cards when any match. On API failure the user gets
// a generic message and the persisted state is left untouched.
func (t *TelegramBot) handleChatMessage(ctx context.Context, chatID int64, sess *session, text string) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	key := state.Key{Feature: state.FeatureChatbot, UserID: sess.User.ID}
	snap := t.loadState(ctx, key)
	snap.State.Append(state.Message{Role: state.RoleUser, Content: text})

	reply, err := t.api.Chat(ctx, sess.Token, text)
	if err != nil {
		t.logger.Error("Chat request failed", "error", err)
		t.sendText(chatID, "Sorry, something went wrong.")
		return
	}

	foods, err := t.api.Foods(ctx, sess.Token)
	if err != nil {
		t.logger.Error("Failed to fetch foods for chat matching", "error", err)
		t.sendText(chatID, "Sorry, something went wrong.")
		return
	}

	matched := matchFoods(foods, reply)
	if len(matched) > 0 {
		var recommended []recommend.Scored
		for i := range matched {
			food := matched[i]
			snap.State.Append(state.Message{
				Role:    state.RoleSystem,
				Content: state.ContentRecommendationCard,
				Food:    &food,
			})
			recommended = append(recommended, recommend.Scored{Food: food})
			t.sendRecommendationCard(chatID, food)
		}
		snap.State.Recommendations = recommended
	} else {
		snap.State.Append(state.Message{Role: state.RoleAssistant, Content: reply})
		t.sendText(chatID, reply)
	}

	t.saveState(ctx, key, snap)
}

func (t *TelegramBot) handleChatCallback(ctx context.Context, chatID int64, sess *session, args []string) {
	if len(args) != 1 || args[0] != "restart" {
		return
	}
	if !sess.loggedIn() {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	key := state.Key{Feature: state.FeatureChatbot, UserID: sess.User.ID}
	if _, err := t.store.Reset(ctx, key); err != nil {
		t.logger.Error("Failed to reset chat state", "error", err, "key", key)
	}
	t.sendText(chatID, state.ChatGreeting)
}

// matchFoods returns the foods whose names appear, case-insensitively,
// in the assistant's reply.
func matchFoods(foods []models.Food, reply string) []models.Food {
	lower := strings.ToLower(reply)
	var matched []models.Food
	for _, food := range foods {
		if food.FoodName == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(food.FoodName)) {
			matched = append(matched, food)
		}
	}
	return matched
}

func (t *TelegramBot) sendRecommendationCard(chatID int64, food models.Food) {
	text := "🎯 Recommended for You\n\n" + formatFoodCard(food)
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛒 Order This Now", cartAddData(food.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🔄 New Suggestion", "chat:restart"),
		),
	)
	t.sendWithKeyboard(chatID, text, keyboard)
}

// loadState loads a snapshot, falling back to the feature default when
// the store itself errors; parse failures are already defaults at the
// store level.
func (t *TelegramBot) loadState(ctx context.Context, key state.Key) state.Snapshot {
	snap, err := t.store.Load(ctx, key)
	if err != nil {
		t.logger.Error("Failed to load conversation state", "error", err, "key", key)
		return state.Snapshot{State: state.DefaultState(key.Feature)}
	}
	return snap
}

// saveState persists a snapshot. A stale write means a concurrent
// submission won the race; that write wins and this one is dropped.
func (t *TelegramBot) saveState(ctx context.Context, key state.Key, snap state.Snapshot) {
	if _, err := t.store.Save(ctx, key, snap); err != nil {
		t.logger.Warn("Failed to save conversation state", "error", err, "key", key)
	}
}
