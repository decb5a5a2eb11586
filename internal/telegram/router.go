package telegram

import (
	"context"
	"strings"

	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"vpn_store_bot/internal/config"
	"vpn_store_bot/internal/domain"
	"vpn_store_bot/internal/logging"
)

type messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendWithKeyboard(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) error
	EditText(ctx context.Context, chatID int64, messageID int, text string) error
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
}

type planCatalog interface {
	ListPlans(ctx context.Context) ([]domain.Plan, error)
	GetPlan(ctx context.Context, planID int64) (domain.Plan, error)
}

type orderLedger interface {
	CreateOrder(ctx context.Context, userID string, planID int64, amount int64) (domain.Order, error)
	LatestPendingOrder(ctx context.Context, userID string) (domain.Order, error)
	LatestOrder(ctx context.Context, userID string) (domain.Order, error)
	CompleteOrder(ctx context.Context, orderID string) (domain.Order, error)
	CountOrders(ctx context.Context, status domain.OrderStatus) (int64, error)
}

type adminRelay interface {
	IsAdmin(id int64) bool
	NotifyAdmin(ctx context.Context, text string) error
	NotifyAdminWithKeyboard(ctx context.Context, text string, markup models.ReplyMarkup) error
	ForwardToAdmin(ctx context.Context, sourceChat int64, messageID int) error
	ReportFailure(ctx context.Context, userID int64, action string, cause error) string
}

// RouterDeps contains everything required to construct a Router.
type RouterDeps struct {
	Messenger  messenger
	Catalog    planCatalog
	Ledger     orderLedger
	Admin      adminRelay
	Storefront config.Storefront
	Logger     *logrus.Entry
}

// Router dispatches incoming updates to the storefront handlers. It holds no
// mutable state; every handler is safe to run concurrently.
type Router struct {
	msg        messenger
	catalog    planCatalog
	ledger     orderLedger
	admin      adminRelay
	storefront config.Storefront
	logger     *logrus.Entry
}

// NewRouter creates a Router from deps.
func NewRouter(deps RouterDeps) *Router {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Logger()
	}

	return &Router{
		msg:        deps.Messenger,
		catalog:    deps.Catalog,
		ledger:     deps.Ledger,
		admin:      deps.Admin,
		storefront: deps.Storefront,
		logger:     logger,
	}
}

type textHandler func(r *Router, ctx context.Context, msg *models.Message)

var commands = map[string]textHandler{
	"/start":            (*Router).handleStart,
	"/plans":            (*Router).handlePlans,
	ButtonViewPlans:     (*Router).handlePlans,
	"/clients":          (*Router).handleClients,
	ButtonClients:       (*Router).handleClients,
	"/status":           (*Router).handleStatus,
	ButtonPaymentStatus: (*Router).handleStatus,
	ButtonSupport:       (*Router).handleSupport,
	ButtonFAQ:           (*Router).handleFAQ,
	"/stats":            (*Router).handleStats,
}

// HandleUpdate routes a single update. Failures are logged and reported; they
// never propagate to the caller.
func (r *Router) HandleUpdate(ctx context.Context, update *models.Update) {
	if r == nil || update == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	switch {
	case update.CallbackQuery != nil:
		r.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && len(update.Message.Photo) > 0:
		r.handlePhoto(ctx, update.Message)
	case update.Message != nil:
		r.handleText(ctx, update.Message)
	}
}

func (r *Router) handleText(ctx context.Context, msg *models.Message) {
	handler, ok := commands[commandKey(msg.Text)]
	if !ok {
		r.logger.WithFields(logging.Fields{
			"event":   "message_ignored",
			"chat_id": msg.Chat.ID,
		}).Debug("no handler for message")
		return
	}
	handler(r, ctx, msg)
}

// commandKey normalizes message text to a lookup key: slash commands lose
// any @botname suffix and arguments, button labels are matched whole.
func commandKey(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return text
	}

	command := strings.Fields(text)[0]
	if at := strings.IndexByte(command, '@'); at >= 0 {
		command = command[:at]
	}
	return strings.ToLower(command)
}

func (r *Router) handleCallback(ctx context.Context, query *models.CallbackQuery) {
	decoded := DecodeCallback(query.Data)

	switch decoded.Kind {
	case CallbackSelectPlan:
		r.handleSelectPlan(ctx, query, decoded.PlanID)
	case CallbackCompleteOrder:
		r.handleCompleteOrder(ctx, query, decoded)
	default:
		r.logger.WithFields(logging.Fields{
			"event":   "callback_unknown",
			"user_id": query.From.ID,
			"data":    query.Data,
		}).Warn("ignoring unknown callback payload")
		r.answer(ctx, query.ID, "", false)
	}
}

// send delivers text and logs a transport failure. The user is not notified
// again since the reply channel is what failed.
func (r *Router) send(ctx context.Context, chatID int64, text string) {
	if err := r.msg.SendText(ctx, chatID, text); err != nil {
		r.logTransport(err, chatID, "send_text")
	}
}

func (r *Router) answer(ctx context.Context, callbackID, text string, alert bool) {
	if err := r.msg.AnswerCallback(ctx, callbackID, text, alert); err != nil {
		r.logTransport(err, 0, "answer_callback")
	}
}

func (r *Router) logTransport(err error, chatID int64, action string) {
	entry := r.logger.WithFields(logging.Fields{
		"event":  "telegram_send_failed",
		"action": action,
	})
	if chatID != 0 {
		entry = entry.WithField("chat_id", chatID)
	}
	entry.WithError(err).Error("telegram call failed")
}

// fail reports a store failure: an apology to the user and a diagnostic to
// the admin.
func (r *Router) fail(ctx context.Context, chatID int64, action, apology string, cause error) {
	r.admin.ReportFailure(ctx, chatID, action, cause)
	if apology != "" {
		r.send(ctx, chatID, apology)
	}
}
