package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"foodseer-bot/internal/charts"
)

// handleDashboard renders the catalog charts and sends each as a photo.
func (t *TelegramBot) handleDashboard(ctx context.Context, chatID int64, sess *session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	foods, err := t.api.Foods(ctx, sess.Token)
	if err != nil {
		t.logger.Error("Failed to fetch foods for dashboard", "error", err)
		t.sendText(chatID, "Sorry, something went wrong.")
		return
	}
	if len(foods) == 0 {
		t.sendText(chatID, "The catalog is empty, nothing to chart yet.")
		return
	}

	series := []charts.Series{
		charts.AllergyBreakdown(foods),
		charts.TopRated(foods, 8),
		charts.StockLevels(foods),
		charts.StockValue(foods),
	}

	t.sendText(chatID, "📊 FoodSeer Dashboard")
	for _, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		png, err := charts.Render(s)
		if err != nil {
			t.logger.Error("Failed to render chart", "error", err, "chart", s.Title)
			continue
		}
		t.sendPhoto(chatID, chartFileName(s.Title), png)
	}
}

func chartFileName(title string) string {
	name := strings.ToLower(title)
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ':
			return '-'
		default:
			return -1
		}
	}, name)
	return strings.Trim(name, "-") + ".png"
}

func (t *TelegramBot) sendPhoto(chatID int64, name string, png []byte) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: png})
	if _, err := t.bot.Send(photo); err != nil {
		t.logger.Error("Failed to send chart", "error", err, "chat_id", chatID)
	}
}
