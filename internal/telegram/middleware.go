package telegram

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"vpn_store_bot/internal/logging"
)

// Recover returns middleware that keeps a panicking handler from taking down
// the polling loop.
func Recover(logger *logrus.Entry) bot.Middleware {
	if logger == nil {
		logger = logging.Logger()
	}

	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			defer func() {
				if r := recover(); r != nil {
					meta := extractUpdateMeta(update)
					logger.WithFields(logging.Fields{
						"event":       "handler_panic",
						"update_type": meta.updateType,
						"user_id":     meta.userID,
						"chat_id":     meta.chatID,
						"panic":       r,
						"stack":       string(debug.Stack()),
					}).Error("panic recovered in handler")
				}
			}()
			next(ctx, b, update)
		}
	}
}

// Logging returns middleware that logs each update and its processing time.
func Logging(logger *logrus.Entry) bot.Middleware {
	if logger == nil {
		logger = logging.Logger()
	}

	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			start := time.Now()
			meta := extractUpdateMeta(update)

			next(ctx, b, update)

			fields := logging.Fields{
				"event":       "telegram_update",
				"update_type": meta.updateType,
				"duration_ms": time.Since(start).Milliseconds(),
			}
			if meta.text != "" {
				fields["text"] = meta.text
			}
			if meta.userID != 0 {
				fields["user_id"] = meta.userID
			}
			if meta.chatID != 0 {
				fields["chat_id"] = meta.chatID
			}

			logger.WithFields(fields).Info("telegram update processed")
		}
	}
}
