package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// botAPI is the subset of *bot.Bot used for outbound traffic.
type botAPI interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	ForwardMessage(ctx context.Context, params *bot.ForwardMessageParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

// TransportError reports a failed call to the Telegram API.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("telegram %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err carries a TransportError.
func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// Gateway is a thin pass-through to the Telegram Bot API.
type Gateway struct {
	api botAPI
}

// NewGateway constructs a Gateway over api.
func NewGateway(api botAPI) *Gateway {
	return &Gateway{api: api}
}

// SendText sends a plain text message.
func (g *Gateway) SendText(ctx context.Context, chatID int64, text string) error {
	return g.send(ctx, "send message", &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
}

// SendWithKeyboard sends text with reply or inline keyboard markup.
func (g *Gateway) SendWithKeyboard(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) error {
	return g.send(ctx, "send message with keyboard", &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: markup,
	})
}

// EditText replaces the text of an existing message and drops its inline keyboard.
func (g *Gateway) EditText(ctx context.Context, chatID int64, messageID int, text string) error {
	if err := g.check(ctx); err != nil {
		return err
	}
	if messageID == 0 {
		return &TransportError{Op: "edit message", Err: errors.New("message id is required")}
	}

	if _, err := g.api.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
	}); err != nil {
		return &TransportError{Op: "edit message", Err: err}
	}
	return nil
}

// Forward copies messageID from fromChatID into toChatID, keeping the sender header.
func (g *Gateway) Forward(ctx context.Context, toChatID, fromChatID int64, messageID int) error {
	if err := g.check(ctx); err != nil {
		return err
	}

	if _, err := g.api.ForwardMessage(ctx, &bot.ForwardMessageParams{
		ChatID:     toChatID,
		FromChatID: fromChatID,
		MessageID:  messageID,
	}); err != nil {
		return &TransportError{Op: "forward message", Err: err}
	}
	return nil
}

// AnswerCallback acknowledges a callback query, optionally showing text as a
// modal alert.
func (g *Gateway) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	if err := g.check(ctx); err != nil {
		return err
	}

	if _, err := g.api.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	}); err != nil {
		return &TransportError{Op: "answer callback", Err: err}
	}
	return nil
}

func (g *Gateway) send(ctx context.Context, op string, params *bot.SendMessageParams) error {
	if err := g.check(ctx); err != nil {
		return err
	}

	if _, err := g.api.SendMessage(ctx, params); err != nil {
		return &TransportError{Op: op, Err: err}
	}
	return nil
}

func (g *Gateway) check(ctx context.Context) error {
	if g == nil || g.api == nil {
		return errors.New("telegram gateway is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	return nil
}
