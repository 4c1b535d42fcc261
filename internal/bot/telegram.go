package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"foodseer-bot/internal/api"
	"foodseer-bot/internal/models"
	"foodseer-bot/internal/state"
	"foodseer-bot/pkg/logger"
)

// Input flow states. They track what the next free-text message from a
// chat means; conversation state proper (chat log, quiz progress) lives
// in the state store.
const (
	flowNone             = ""
	flowLoginUsername    = "login_username"
	flowLoginPassword    = "login_password"
	flowRegisterUsername = "register_username"
	flowRegisterEmail    = "register_email"
	flowRegisterPassword = "register_password"
	flowOrderName        = "order_name"
	flowAllergies        = "preferences_allergies"
	flowFoodCreate       = "food_create"
	flowStockAmount      = "stock_amount"
	flowFoodPrice        = "food_price"
	flowFoodAllergens    = "food_allergens"
)

// session is the per-chat runtime state: the API token, the signed-in
// user, the input flow, and the cart. The mutex serializes mutations for
// one user so a slow API call cannot race a second submission against
// the state store.
type session struct {
	mu        sync.Mutex
	Token     string
	User      *models.User
	Flow      string
	Pending   map[string]string
	Cart      map[int64]int
	CartFoods map[int64]models.Food
	PickedUp  map[int64]bool
}

func newSession() *session {
	return &session{
		Pending:   make(map[string]string),
		Cart:      make(map[int64]int),
		CartFoods: make(map[int64]models.Food),
		PickedUp:  make(map[int64]bool),
	}
}

func (s *session) loggedIn() bool {
	return s.Token != "" && s.User != nil
}

func (s *session) isStaff() bool {
	return s.loggedIn() && (s.User.Role == models.RoleStaff || s.User.Role == models.RoleAdmin)
}

func (s *session) isAdmin() bool {
	return s.loggedIn() && s.User.Role == models.RoleAdmin
}

func (s *session) isDriver() bool {
	return s.loggedIn() && s.User.Role == models.RoleDriver
}

type TelegramBot struct {
	bot        *tgbotapi.BotAPI
	api        *api.Client
	store      state.Store
	logger     *logger.Logger
	sessions   map[int64]*session
	stateMutex sync.RWMutex
}

func NewTelegramBot(token string, apiClient *api.Client, store state.Store, logger *logger.Logger) (*TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	logger.Info("Authorized on Telegram", "username", bot.Self.UserName)

	return &TelegramBot{
		bot:      bot,
		api:      apiClient,
		store:    store,
		logger:   logger,
		sessions: make(map[int64]*session),
	}, nil
}

// Start begins receiving updates from Telegram via polling
func (t *TelegramBot) Start(ctx context.Context) error {
	_, err := t.bot.Request(tgbotapi.DeleteWebhookConfig{
		DropPendingUpdates: true,
	})
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := t.bot.GetUpdatesChan(updateConfig)

	t.logger.Info("Started receiving Telegram updates")

	go t.handleUpdates(ctx, updates)

	return nil
}

// handleUpdates processes incoming updates from Telegram
func (t *TelegramBot) handleUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		go func(update tgbotapi.Update) {
			defer func() {
				if r := recover(); r != nil {
					t.logger.Error("Recovered from panic while processing update", "error", r)
				}
			}()

			if update.Message != nil {
				t.logger.Info("Received message",
					"chat_id", update.Message.Chat.ID,
					"from", update.Message.From.UserName)

				if update.Message.IsCommand() {
					t.handleCommand(ctx, update.Message)
				} else {
					t.handleMessage(ctx, update.Message)
				}
			} else if update.CallbackQuery != nil {
				t.handleCallbackQuery(ctx, update.CallbackQuery)
			}
		}(update)
	}
}

// Stop gracefully shuts down the bot
func (t *TelegramBot) Stop(ctx context.Context) error {
	t.bot.StopReceivingUpdates()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(500 * time.Millisecond):
		return nil
	}
}

// session returns the session for a chat, creating it on first contact.
func (t *TelegramBot) session(chatID int64) *session {
	t.stateMutex.RLock()
	sess, ok := t.sessions[chatID]
	t.stateMutex.RUnlock()
	if ok {
		return sess
	}

	t.stateMutex.Lock()
	defer t.stateMutex.Unlock()
	if sess, ok = t.sessions[chatID]; ok {
		return sess
	}
	sess = newSession()
	t.sessions[chatID] = sess
	return sess
}

// handleCommand processes bot commands
func (t *TelegramBot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	command := message.Command()
	chatID := message.Chat.ID
	sess := t.session(chatID)

	t.logger.Info("Handling command", "command", command, "chat_id", chatID)

	switch command {
	case "start":
		t.sendText(chatID, "👋 Welcome to FoodSeer! I can recommend dishes, run a taste quiz and place your orders.\n\nUse /login or /register to get started, then /menu for everything I can do.")

	case "help":
		t.sendText(chatID, helpText(sess))

	case "menu":
		t.sendMenu(chatID, sess)

	case "login":
		t.startLogin(chatID, sess)

	case "register":
		t.startRegister(chatID, sess)

	case "logout":
		t.handleLogout(ctx, chatID, sess)

	case "prefs":
		t.requireLogin(chatID, sess, func() {
			t.startPreferences(chatID, sess)
		})

	case "chat":
		t.requireLogin(chatID, sess, func() {
			t.resumeChat(ctx, chatID, sess)
		})

	case "quiz":
		t.requireLogin(chatID, sess, func() {
			t.resumeQuiz(ctx, chatID, sess)
		})

	case "foods":
		t.requireLogin(chatID, sess, func() {
			t.handleBrowseFoods(ctx, chatID, sess)
		})

	case "cart":
		t.requireLogin(chatID, sess, func() {
			t.handleShowCart(chatID, sess)
		})

	case "orders":
		t.requireLogin(chatID, sess, func() {
			t.handleMyOrders(ctx, chatID, sess)
		})

	case "dashboard":
		t.requireLogin(chatID, sess, func() {
			t.handleDashboard(ctx, chatID, sess)
		})

	case "inventory":
		t.requireStaff(chatID, sess, func() {
			t.handleInventory(ctx, chatID, sess)
		})

	case "addfood":
		t.requireStaff(chatID, sess, func() {
			t.startAddFood(chatID, sess)
		})

	case "fulfill":
		t.requireStaff(chatID, sess, func() {
			t.handleUnfulfilledOrders(ctx, chatID, sess)
		})

	case "users":
		t.requireAdmin(chatID, sess, func() {
			t.handleUserManagement(ctx, chatID, sess)
		})

	case "driver":
		t.requireDriver(chatID, sess, func() {
			t.handleDriverDashboard(ctx, chatID, sess)
		})

	default:
		t.sendText(chatID, "Unknown command. Use /help to see what I can do.")
	}
}

// handleMessage routes free text by the active input flow; with no flow
// active, text from a signed-in user goes to the chatbot.
func (t *TelegramBot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)
	sess := t.session(chatID)

	if text == "" {
		return
	}

	switch sess.Flow {
	case flowLoginUsername, flowLoginPassword,
		flowRegisterUsername, flowRegisterEmail, flowRegisterPassword:
		t.handleAuthInput(ctx, chatID, sess, text)

	case flowAllergies:
		t.handleAllergiesInput(ctx, chatID, sess, text)

	case flowOrderName:
		t.handleOrderNameInput(ctx, chatID, sess, text)

	case flowFoodCreate:
		t.handleFoodCreateInput(ctx, chatID, sess, text)

	case flowStockAmount:
		t.handleStockAmountInput(ctx, chatID, sess, text)

	case flowFoodPrice:
		t.handleFoodPriceInput(ctx, chatID, sess, text)

	case flowFoodAllergens:
		t.handleFoodAllergensInput(ctx, chatID, sess, text)

	default:
		if !sess.loggedIn() {
			t.sendText(chatID, "Please /login first, or /register if you are new.")
			return
		}
		t.handleChatMessage(ctx, chatID, sess, text)
	}
}

// handleCallbackQuery processes callback queries from inline keyboards
func (t *TelegramBot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	t.logger.Info("Received callback query", "from", query.From.UserName, "data", query.Data)

	// Acknowledge the callback first so the button stops spinning.
	callback := tgbotapi.NewCallback(query.ID, "")
	if _, err := t.bot.Request(callback); err != nil {
		t.logger.Error("Failed to acknowledge callback", "error", err)
	}

	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID
	sess := t.session(chatID)

	parts := strings.Split(query.Data, ":")
	switch parts[0] {
	case "quiz":
		t.handleQuizCallback(ctx, chatID, sess, parts[1:])
	case "chat":
		t.handleChatCallback(ctx, chatID, sess, parts[1:])
	case "cart":
		t.handleCartCallback(ctx, chatID, sess, parts[1:])
	case "rate":
		t.handleRateCallback(ctx, chatID, sess, parts[1:])
	case "budget":
		t.handleBudgetCallback(chatID, sess, parts[1:])
	case "regrole":
		t.handleRegisterRoleCallback(ctx, chatID, sess, parts[1:])
	case "fulfill":
		t.handleFulfillCallback(ctx, chatID, sess, parts[1:])
	case "inv":
		t.handleInventoryCallback(ctx, chatID, sess, parts[1:])
	case "user":
		t.handleUserCallback(ctx, chatID, sess, parts[1:])
	case "driver":
		t.handleDriverCallback(ctx, chatID, sess, parts[1:])
	default:
		t.logger.Warn("Unhandled callback", "data", query.Data)
	}
}

// --- access guards ---

func (t *TelegramBot) requireLogin(chatID int64, sess *session, fn func()) {
	if !sess.loggedIn() {
		t.sendText(chatID, "You need to /login first.")
		return
	}
	fn()
}

func (t *TelegramBot) requireStaff(chatID int64, sess *session, fn func()) {
	if !sess.isStaff() {
		t.sendText(chatID, "This command is for staff accounts only.")
		return
	}
	fn()
}

func (t *TelegramBot) requireAdmin(chatID int64, sess *session, fn func()) {
	if !sess.isAdmin() {
		t.sendText(chatID, "This command is for admin accounts only.")
		return
	}
	fn()
}

func (t *TelegramBot) requireDriver(chatID int64, sess *session, fn func()) {
	if !sess.isDriver() {
		t.sendText(chatID, "This command is for driver accounts only.")
		return
	}
	fn()
}

// --- send helpers ---

func (t *TelegramBot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		t.logger.Error("Failed to send message", "error", err, "chat_id", chatID)
	}
}

func (t *TelegramBot) sendWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	if _, err := t.bot.Send(msg); err != nil {
		t.logger.Error("Failed to send message", "error", err, "chat_id", chatID)
	}
}

func (t *TelegramBot) sendMenu(chatID int64, sess *session) {
	if !sess.loggedIn() {
		t.sendText(chatID, "Use /login or /register first, then /menu.")
		return
	}

	lines := []string{
		"🍽 What would you like to do?",
		"",
		"/chat — tell me what you're craving",
		"/quiz — 5-question taste quiz",
		"/foods — browse foods that fit your preferences",
		"/cart — view your cart and check out",
		"/orders — your orders and ratings",
		"/dashboard — catalog charts",
		"/prefs — budget and allergies",
	}
	if sess.isStaff() {
		lines = append(lines,
			"/inventory — manage stock",
			"/addfood — add a new food",
			"/fulfill — fulfill open orders")
	}
	if sess.isAdmin() {
		lines = append(lines, "/users — manage user accounts")
	}
	if sess.isDriver() {
		lines = append(lines, "/driver — your delivery dashboard")
	}
	lines = append(lines, "/logout — sign out")

	t.sendText(chatID, strings.Join(lines, "\n"))
}

func helpText(sess *session) string {
	if !sess.loggedIn() {
		return "I'm the FoodSeer assistant. /login or /register, then /menu shows everything I can do."
	}
	return "Use /menu for the full list of actions. Plain messages go to the food chatbot."
}
