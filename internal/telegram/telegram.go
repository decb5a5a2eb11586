// Package telegram hosts the Telegram client, the outbound gateway, and the
// command router for the storefront.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"vpn_store_bot/internal/config"
	"vpn_store_bot/internal/logging"
)

type botRunner interface {
	Start(ctx context.Context)
}

// botClient is the part of *bot.Bot the client needs: the polling loop plus
// the send methods used by Gateway.
type botClient interface {
	botRunner
	botAPI
}

// Dispatcher receives every update that reaches the default handler.
type Dispatcher interface {
	HandleUpdate(ctx context.Context, update *models.Update)
}

var (
	defaultAllowedUpdates = bot.AllowedUpdates{
		"message",
		"callback_query",
	}

	createBot = func(token string, options ...bot.Option) (botClient, error) {
		return bot.New(token, options...)
	}
)

// Client wraps the Telegram bot instance and logging dependencies.
type Client struct {
	bot    botClient
	logger *logrus.Entry

	mu         sync.RWMutex
	dispatcher Dispatcher
}

// NewClient initializes the Telegram bot with long polling, the recover and
// logging middlewares, and a default handler that forwards to the dispatcher
// installed with SetDispatcher.
func NewClient(cfg config.Config, logger *logrus.Entry) (*Client, error) {
	if strings.TrimSpace(cfg.TelegramToken) == "" {
		return nil, errors.New("telegram token is required")
	}
	if logger == nil {
		logger = logging.Logger()
	}

	client := &Client{logger: logger}

	tgBot, err := createBot(cfg.TelegramToken,
		bot.WithAllowedUpdates(defaultAllowedUpdates),
		bot.WithMiddlewares(Recover(logger), Logging(logger)),
		bot.WithDefaultHandler(client.defaultHandler),
		bot.WithErrorsHandler(errorHandler(logger)),
	)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot client: %w", err)
	}

	client.bot = tgBot
	return client, nil
}

// Gateway returns the outbound adapter bound to this client's bot.
func (c *Client) Gateway() *Gateway {
	return NewGateway(c.bot)
}

// SetDispatcher installs the update dispatcher. It must be called before Start.
func (c *Client) SetDispatcher(d Dispatcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatcher = d
}

// Start begins receiving updates via long polling until the context is canceled.
func (c *Client) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	c.logger.WithFields(logging.Fields{
		"event":           "telegram_listen",
		"allowed_updates": defaultAllowedUpdates,
	}).Info("starting telegram long polling")

	c.bot.Start(ctx)

	c.logger.WithField("event", "telegram_stopped").Info("telegram polling stopped")
}

func (c *Client) defaultHandler(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update == nil {
		return
	}

	c.mu.RLock()
	dispatcher := c.dispatcher
	c.mu.RUnlock()

	if dispatcher == nil {
		c.logger.WithField("event", "telegram_update_dropped").Warn("no dispatcher installed")
		return
	}

	dispatcher.HandleUpdate(ctx, update)
}

type updateMeta struct {
	userID     int64
	chatID     int64
	text       string
	updateType string
}

func extractUpdateMeta(update *models.Update) updateMeta {
	switch {
	case update == nil:
		return updateMeta{updateType: "unknown"}
	case update.Message != nil && len(update.Message.Photo) > 0:
		return updateMeta{
			userID:     userID(update.Message.From),
			chatID:     chatID(&update.Message.Chat),
			text:       strings.TrimSpace(update.Message.Caption),
			updateType: "photo",
		}
	case update.Message != nil:
		return updateMeta{
			userID:     userID(update.Message.From),
			chatID:     chatID(&update.Message.Chat),
			text:       strings.TrimSpace(update.Message.Text),
			updateType: "message",
		}
	case update.CallbackQuery != nil:
		return updateMeta{
			userID:     userID(&update.CallbackQuery.From),
			chatID:     messageChatID(update.CallbackQuery.Message),
			text:       strings.TrimSpace(update.CallbackQuery.Data),
			updateType: "callback_query",
		}
	default:
		return updateMeta{updateType: "unknown"}
	}
}

func errorHandler(logger *logrus.Entry) bot.ErrorsHandler {
	if logger == nil {
		logger = logging.Logger()
	}

	return func(err error) {
		if err == nil {
			return
		}

		logger.WithField("event", "telegram_error").WithError(err).Error("telegram polling error")
	}
}

func userID(user *models.User) int64 {
	if user == nil {
		return 0
	}

	return user.ID
}

func chatID(chat *models.Chat) int64 {
	if chat == nil {
		return 0
	}

	return chat.ID
}

func messageChatID(msg models.MaybeInaccessibleMessage) int64 {
	chat, _ := messageRef(msg)
	return chat
}

// messageRef returns the chat and message id of a callback's source message.
func messageRef(msg models.MaybeInaccessibleMessage) (int64, int) {
	switch msg.Type {
	case models.MaybeInaccessibleMessageTypeMessage:
		if msg.Message == nil {
			return 0, 0
		}
		return chatID(&msg.Message.Chat), msg.Message.ID
	case models.MaybeInaccessibleMessageTypeInaccessibleMessage:
		if msg.InaccessibleMessage == nil {
			return 0, 0
		}
		return chatID(&msg.InaccessibleMessage.Chat), msg.InaccessibleMessage.MessageID
	default:
		return 0, 0
	}
}
