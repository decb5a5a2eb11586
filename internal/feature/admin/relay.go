// Package admin relays notifications and forwarded messages to the single
// configured administrator.
package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vpn_store_bot/internal/logging"
)

type sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendWithKeyboard(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) error
	Forward(ctx context.Context, toChatID, fromChatID int64, messageID int) error
}

// newRef is overridable for tests.
var newRef = func() string {
	return uuid.NewString()
}

// Relay delivers messages to the administrator.
type Relay struct {
	adminID int64
	sender  sender
	logger  *logrus.Entry
}

// NewRelay constructs a Relay for adminID.
func NewRelay(adminID int64, sender sender, logger *logrus.Entry) *Relay {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Relay{
		adminID: adminID,
		sender:  sender,
		logger:  logger,
	}
}

// AdminID returns the configured administrator identity.
func (r *Relay) AdminID() int64 {
	if r == nil {
		return 0
	}
	return r.adminID
}

// IsAdmin reports whether id is exactly the configured administrator.
func (r *Relay) IsAdmin(id int64) bool {
	return r != nil && r.adminID != 0 && id == r.adminID
}

// NotifyAdmin sends text to the administrator.
func (r *Relay) NotifyAdmin(ctx context.Context, text string) error {
	if err := r.check(); err != nil {
		return err
	}

	if err := r.sender.SendText(ctx, r.adminID, text); err != nil {
		return fmt.Errorf("notify admin: %w", err)
	}
	return nil
}

// NotifyAdminWithKeyboard sends text with inline markup to the administrator.
func (r *Relay) NotifyAdminWithKeyboard(ctx context.Context, text string, markup models.ReplyMarkup) error {
	if err := r.check(); err != nil {
		return err
	}

	if err := r.sender.SendWithKeyboard(ctx, r.adminID, text, markup); err != nil {
		return fmt.Errorf("notify admin: %w", err)
	}
	return nil
}

// ForwardToAdmin forwards messageID from sourceChat to the administrator.
func (r *Relay) ForwardToAdmin(ctx context.Context, sourceChat int64, messageID int) error {
	if err := r.check(); err != nil {
		return err
	}

	if err := r.sender.Forward(ctx, r.adminID, sourceChat, messageID); err != nil {
		return fmt.Errorf("forward to admin: %w", err)
	}
	return nil
}

// ReportFailure logs cause and sends the administrator a diagnostic naming
// the affected user. The returned reference appears in both.
func (r *Relay) ReportFailure(ctx context.Context, userID int64, action string, cause error) string {
	ref := newRef()

	entry := logging.Enrich(r.logEntry(), logging.Context{UserID: userID, Event: "handler_failure"}).
		WithField("action", action).
		WithField("ref", ref)
	if cause != nil {
		entry = entry.WithError(cause)
	}
	entry.Error("store operation failed")

	detail := "unknown error"
	if cause != nil {
		detail = cause.Error()
	}

	text := fmt.Sprintf("⚠️ Error %s from user %d:\n%s\nref: %s", action, userID, detail, ref)
	if err := r.NotifyAdmin(ctx, text); err != nil {
		r.logEntry().WithFields(logging.Fields{
			"event": "admin_diagnostic_failed",
			"ref":   ref,
		}).WithError(err).Error("failed to deliver diagnostic to admin")
	}

	return ref
}

func (r *Relay) logEntry() *logrus.Entry {
	if r == nil || r.logger == nil {
		return logging.Logger()
	}
	return r.logger
}

func (r *Relay) check() error {
	if r == nil || r.sender == nil {
		return errors.New("admin relay is not initialized")
	}
	if r.adminID == 0 {
		return errors.New("admin id is not configured")
	}
	return nil
}
