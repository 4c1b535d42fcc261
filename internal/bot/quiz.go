package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"foodseer-bot/internal/recommend"
	"foodseer-bot/internal/state"
)

// resumeQuiz shows the current question, or the saved results when the
// quiz was already completed.
func (t *TelegramBot) resumeQuiz(ctx context.Context, chatID int64, sess *session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	key := state.Key{Feature: state.FeatureQuiz, UserID: sess.User.ID}
	snap := t.loadState(ctx, key)

	if snap.State.Complete {
		t.sendQuizResults(chatID, snap.State.Recommendations)
		return
	}
	t.sendQuizQuestion(chatID, snap.State.Step)
}

func (t *TelegramBot) sendQuizQuestion(chatID int64, step int) {
	questions := recommend.Questions()
	if step < 0 || step >= len(questions) {
		return
	}
	q := questions[step]

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, opt := range q.Options {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(opt.Label, "quiz:answer:"+opt.Value),
		))
	}
	if step > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("← Back", "quiz:back"),
		))
	}

	text := fmt.Sprintf("📋 Question %d of %d\n\n%s", step+1, len(questions), q.Prompt)
	t.sendWithKeyboard(chatID, text, tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (t *TelegramBot) handleQuizCallback(ctx context.Context, chatID int64, sess *session, args []string) {
	if !sess.loggedIn() {
		t.sendText(chatID, "You need to /login first.")
		return
	}
	if len(args) == 0 {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	key := state.Key{Feature: state.FeatureQuiz, UserID: sess.User.ID}

	switch args[0] {
	case "answer":
		if len(args) != 2 {
			return
		}
		t.handleQuizAnswer(ctx, chatID, sess, key, args[1])

	case "back":
		snap := t.loadState(ctx, key)
		if snap.State.Back() {
			t.saveState(ctx, key, snap)
		}
		t.sendQuizQuestion(chatID, snap.State.Step)

	case "restart":
		snap, err := t.store.Reset(ctx, key)
		if err != nil {
			t.logger.Error("Failed to reset quiz state", "error", err, "key", key)
			snap = state.Snapshot{State: state.DefaultState(state.FeatureQuiz)}
		}
		t.sendQuizQuestion(chatID, snap.State.Step)
	}
}

func (t *TelegramBot) handleQuizAnswer(ctx context.Context, chatID int64, sess *session, key state.Key, value string) {
	questions := recommend.Questions()
	snap := t.loadState(ctx, key)
	if snap.State.Complete {
		t.sendQuizResults(chatID, snap.State.Recommendations)
		return
	}

	question := questions[snap.State.Step]
	completed := snap.State.SubmitAnswer(question.ID, value, len(questions))
	if !completed {
		t.saveState(ctx, key, snap)
		t.sendQuizQuestion(chatID, snap.State.Step)
		return
	}

	// Final answer: compute recommendations against a fresh catalog and
	// preference snapshot. On API failure nothing is persisted, so the
	// user can simply re-answer the last question.
	user, err := t.api.CurrentUser(ctx, sess.Token)
	if err != nil {
		t.logger.Error("Failed to refresh profile for quiz results", "error", err)
		t.sendText(chatID, "Sorry, something went wrong. Please try that answer again.")
		return
	}
	sess.User = user

	foods, err := t.api.Foods(ctx, sess.Token)
	if err != nil {
		t.logger.Error("Failed to fetch foods for quiz results", "error", err)
		t.sendText(chatID, "Sorry, something went wrong. Please try that answer again.")
		return
	}

	allergies := user.Preferences.Allergies()
	safe := recommend.Filter(foods, user.Preferences, true)
	snap.State.Recommendations = recommend.Recommend(safe, allergies, snap.State.Answers)
	t.saveState(ctx, key, snap)

	if len(allergies) > 0 {
		t.sendText(chatID, "✅ Allergen-safe: every suggestion excludes "+joinComma(allergies))
	}
	t.sendQuizResults(chatID, snap.State.Recommendations)
}

func (t *TelegramBot) sendQuizResults(chatID int64, recommendations []recommend.Scored) {
	if len(recommendations) == 0 {
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🔄 Take Quiz Again", "quiz:restart"),
			),
		)
		t.sendWithKeyboard(chatID, "😔 No foods match your quiz answers. Try adjusting your preferences with /prefs!", keyboard)
		return
	}

	t.sendText(chatID, "📋 Your Personalized Recommendations")
	for i, rec := range recommendations {
		text := fmt.Sprintf("#%d\n%s", i+1, formatFoodCard(rec.Food))
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🛒 Add to Cart", cartAddData(rec.ID)),
			),
		)
		t.sendWithKeyboard(chatID, text, keyboard)
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Take Quiz Again", "quiz:restart"),
		),
	)
	t.sendWithKeyboard(chatID, "Want different suggestions?", keyboard)
}
