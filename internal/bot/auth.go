package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"foodseer-bot/internal/api"
	"foodseer-bot/internal/models"
	"foodseer-bot/internal/state"
)

func (t *TelegramBot) startLogin(chatID int64, sess *session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.Flow = flowLoginUsername
	sess.Pending = make(map[string]string)
	t.sendText(chatID, "Your FoodSeer username:")
}

func (t *TelegramBot) startRegister(chatID int64, sess *session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.Flow = flowRegisterUsername
	sess.Pending = make(map[string]string)
	t.sendText(chatID, "Pick a username:")
}

// handleAuthInput advances the login/register conversations one field at
// a time.
func (t *TelegramBot) handleAuthInput(ctx context.Context, chatID int64, sess *session, text string) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch sess.Flow {
	case flowLoginUsername:
		sess.Pending["username"] = text
		sess.Flow = flowLoginPassword
		t.sendText(chatID, "And your password:")

	case flowLoginPassword:
		username := sess.Pending["username"]
		sess.Flow = flowNone

		resp, err := t.api.Login(ctx, username, text)
		if err != nil {
			t.logger.Error("Login failed", "error", err, "username", username)
			t.sendText(chatID, "Login failed. Check your credentials and try /login again.")
			return
		}

		user, err := t.api.CurrentUser(ctx, resp.AccessToken)
		if err != nil {
			t.logger.Error("Failed to fetch profile after login", "error", err)
			t.sendText(chatID, "Sorry, something went wrong. Please try /login again.")
			return
		}

		sess.Token = resp.AccessToken
		sess.User = user
		t.sendText(chatID, "✅ Signed in as "+user.Username+". Use /menu to get going.")

	case flowRegisterUsername:
		sess.Pending["username"] = text
		sess.Flow = flowRegisterEmail
		t.sendText(chatID, "Your email address:")

	case flowRegisterEmail:
		if !strings.Contains(text, "@") {
			t.sendText(chatID, "That doesn't look like an email. Try again:")
			return
		}
		sess.Pending["email"] = text
		sess.Flow = flowRegisterPassword
		t.sendText(chatID, "Choose a password:")

	case flowRegisterPassword:
		sess.Pending["password"] = text
		sess.Flow = flowNone

		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Customer", "regrole:"+models.RoleCustomer),
				tgbotapi.NewInlineKeyboardButtonData("Driver", "regrole:"+models.RoleDriver),
			),
		)
		t.sendWithKeyboard(chatID, "What kind of account is this?", keyboard)
	}
}

func (t *TelegramBot) handleRegisterRoleCallback(ctx context.Context, chatID int64, sess *session, args []string) {
	if len(args) != 1 {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	req := api.RegisterRequest{
		Username: sess.Pending["username"],
		Email:    sess.Pending["email"],
		Password: sess.Pending["password"],
		Role:     args[0],
	}
	if req.Username == "" || req.Password == "" {
		t.sendText(chatID, "Registration expired. Start over with /register.")
		return
	}

	if err := t.api.Register(ctx, req); err != nil {
		t.logger.Error("Registration failed", "error", err, "username", req.Username)
		t.sendText(chatID, "Registration failed: "+serverMessage(err))
		return
	}

	sess.Pending = make(map[string]string)
	t.sendText(chatID, "🎉 Account created! Use /login to sign in.")
}

// handleLogout clears the session and destroys both persisted
// conversation states for the user.
func (t *TelegramBot) handleLogout(ctx context.Context, chatID int64, sess *session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.User != nil {
		for _, feature := range []state.Feature{state.FeatureChatbot, state.FeatureQuiz} {
			key := state.Key{Feature: feature, UserID: sess.User.ID}
			if _, err := t.store.Reset(ctx, key); err != nil {
				t.logger.Error("Failed to reset conversation state on logout", "error", err, "key", key)
			}
		}
	}

	sess.Token = ""
	sess.User = nil
	sess.Flow = flowNone
	sess.Pending = make(map[string]string)
	sess.Cart = make(map[int64]int)
	sess.CartFoods = make(map[int64]models.Food)
	sess.PickedUp = make(map[int64]bool)

	t.sendText(chatID, "You're signed out. See you next time!")
}

// --- preferences ---

func (t *TelegramBot) startPreferences(chatID int64, sess *session) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💵 Budget ($0-10)", "budget:budget"),
			tgbotapi.NewInlineKeyboardButtonData("💳 Moderate ($0-20)", "budget:moderate"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💎 Premium ($0-35)", "budget:premium"),
			tgbotapi.NewInlineKeyboardButtonData("🚀 No Limit", "budget:nolimit"),
		),
	)
	t.sendWithKeyboard(chatID, "What's your budget for a meal?", keyboard)
}

func (t *TelegramBot) handleBudgetCallback(chatID int64, sess *session, args []string) {
	if len(args) != 1 {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	budget := args[0]
	if budget == "nolimit" {
		budget = ""
	}
	sess.Pending["budget"] = budget
	sess.Flow = flowAllergies
	t.sendText(chatID, "Any allergies? Send them comma-separated (e.g. peanuts, dairy), or \"none\".")
}

func (t *TelegramBot) handleAllergiesInput(ctx context.Context, chatID int64, sess *session, text string) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.Flow = flowNone

	var allergies []string
	if !strings.EqualFold(text, "none") {
		for _, part := range strings.Split(text, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				allergies = append(allergies, trimmed)
			}
		}
	}

	update := api.PreferencesUpdate{
		CostPreference:      sess.Pending["budget"],
		DietaryRestrictions: allergies,
	}
	if err := t.api.UpdatePreferences(ctx, sess.Token, update); err != nil {
		t.logger.Error("Failed to update preferences", "error", err)
		t.sendText(chatID, "Sorry, something went wrong saving your preferences.")
		return
	}

	// Refresh the cached profile so filtering uses the new preferences.
	if user, err := t.api.CurrentUser(ctx, sess.Token); err == nil {
		sess.User = user
	}

	if len(allergies) > 0 {
		t.sendText(chatID, "✅ Preferences saved. All recommendations will exclude: "+strings.Join(allergies, ", "))
	} else {
		t.sendText(chatID, "✅ Preferences saved.")
	}
}

// serverMessage extracts the server's own message text from an API error
// for the cases where it is meant to be shown verbatim.
func serverMessage(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Body != "" {
		return apiErr.Body
	}
	return "please try again later."
}
