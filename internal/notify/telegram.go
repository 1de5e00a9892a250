package notify

import (
	"fmt"
	"log"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stellarlinkco/rampup/internal/bus"
	"github.com/stellarlinkco/rampup/internal/config"
)

// TelegramBot interface for mocking telegram bot API
type TelegramBot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetSelf() tgbotapi.User
}

// tgBotWrapper wraps tgbotapi.BotAPI to implement TelegramBot interface
type tgBotWrapper struct {
	bot *tgbotapi.BotAPI
}

func (w *tgBotWrapper) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return w.bot.Send(c)
}

func (w *tgBotWrapper) GetSelf() tgbotapi.User {
	return w.bot.Self
}

// BotFactory creates TelegramBot instances (allows mocking)
type BotFactory func(token, apiEndpoint string, client *http.Client) (TelegramBot, error)

// defaultBotFactory creates real telegram bot
var defaultBotFactory BotFactory = func(token, apiEndpoint string, client *http.Client) (TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, apiEndpoint, client)
	if err != nil {
		return nil, err
	}
	return &tgBotWrapper{bot: bot}, nil
}

// Notifier forwards onboarding milestones to an ops Telegram chat.
type Notifier struct {
	token      string
	chatID     int64
	bot        TelegramBot
	botFactory BotFactory
}

func New(cfg config.NotifyConfig) (*Notifier, error) {
	return NewWithFactory(cfg, defaultBotFactory)
}

// NewWithFactory creates a Notifier with custom bot factory (for testing)
func NewWithFactory(cfg config.NotifyConfig, factory BotFactory) (*Notifier, error) {
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	if cfg.TelegramChatID == 0 {
		return nil, fmt.Errorf("telegram chat id is required")
	}
	return &Notifier{
		token:      cfg.TelegramToken,
		chatID:     cfg.TelegramChatID,
		botFactory: factory,
	}, nil
}

func (n *Notifier) Start(b *bus.EventBus) error {
	bot, err := n.botFactory(n.token, tgbotapi.APIEndpoint, http.DefaultClient)
	if err != nil {
		return fmt.Errorf("create telegram bot: %w", err)
	}
	n.bot = bot
	log.Printf("[notify] authorized as @%s", bot.GetSelf().UserName)

	b.Subscribe("notify", n.handleEvent)
	return nil
}

func (n *Notifier) handleEvent(ev bus.Event) {
	text := formatEvent(ev)
	if text == "" {
		return
	}
	if _, err := n.bot.Send(tgbotapi.NewMessage(n.chatID, text)); err != nil {
		log.Printf("[notify] send failed: %v", err)
	}
}

// formatEvent renders the events worth paging a human about; everything
// else returns "" and is dropped.
func formatEvent(ev bus.Event) string {
	switch ev.Type {
	case bus.EventStepFailed:
		return fmt.Sprintf("⚠️ Onboarding step %q failed for %s: %s", ev.Step, ev.Employee, ev.Error)
	case bus.EventOnboardingFinished:
		return fmt.Sprintf("✅ Onboarding finished for %s: %.1f%% complete", ev.Employee, ev.Progress)
	case bus.EventReminderSent:
		return fmt.Sprintf("📋 Reminder digest sent for %s (%.1f%% complete)", ev.Employee, ev.Progress)
	default:
		return ""
	}
}
