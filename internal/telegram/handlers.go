package telegram

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-telegram/bot/models"
	"golang.org/x/sync/errgroup"

	"vpn_store_bot/internal/domain"
	"vpn_store_bot/internal/logging"
)

func (r *Router) handleStart(ctx context.Context, msg *models.Message) {
	if err := r.msg.SendWithKeyboard(ctx, msg.Chat.ID, msgWelcome, MainMenu()); err != nil {
		r.logTransport(err, msg.Chat.ID, "send_welcome")
	}
}

func (r *Router) handlePlans(ctx context.Context, msg *models.Message) {
	chat := msg.Chat.ID

	plans, err := r.catalog.ListPlans(ctx)
	if err != nil {
		r.fail(ctx, chat, "fetching plans", msgPlansFailed, err)
		return
	}

	if len(plans) == 0 {
		r.send(ctx, chat, msgNoPlans)
		return
	}

	if err := r.msg.SendWithKeyboard(ctx, chat, msgChoosePlan, PlanKeyboard(plans)); err != nil {
		r.logTransport(err, chat, "send_plans")
	}
}

func (r *Router) handleClients(ctx context.Context, msg *models.Message) {
	r.send(ctx, msg.Chat.ID, clientsText(r.storefront.Clients))
}

func (r *Router) handleSupport(ctx context.Context, msg *models.Message) {
	r.send(ctx, msg.Chat.ID, supportText(r.storefront.Support))
}

func (r *Router) handleFAQ(ctx context.Context, msg *models.Message) {
	r.send(ctx, msg.Chat.ID, msgFAQ)
}

func (r *Router) handleSelectPlan(ctx context.Context, query *models.CallbackQuery, planID int64) {
	chat := messageChatID(query.Message)
	if chat == 0 {
		chat = query.From.ID
	}
	log := logging.Enrich(r.logger, logging.Context{UserID: query.From.ID, ChatID: chat, PlanID: planID})

	plan, err := r.catalog.GetPlan(ctx, planID)
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidID):
		log.WithField("event", "plan_not_found").Info("selected plan does not exist")
		r.answer(ctx, query.ID, msgPlanNotFound, true)
		return
	case err != nil:
		r.answer(ctx, query.ID, msgOrderFailedAlert, true)
		r.fail(ctx, chat, "processing order", msgOrderFailed, err)
		return
	}

	order, err := r.ledger.CreateOrder(ctx, strconv.FormatInt(chat, 10), plan.ID, plan.Price)
	if err != nil {
		r.answer(ctx, query.ID, msgOrderFailedAlert, true)
		r.fail(ctx, chat, "processing order", msgOrderFailed, err)
		return
	}

	r.answer(ctx, query.ID, "", false)

	var g errgroup.Group
	g.Go(func() error {
		return r.admin.NotifyAdmin(ctx, newOrderAlertText(chat, plan, order))
	})
	g.Go(func() error {
		return r.msg.SendText(ctx, chat, orderDetailsText(plan, r.storefront))
	})
	if err := g.Wait(); err != nil {
		log.WithField("order_id", order.ID).WithField("event", "order_notify_failed").
			WithError(err).Error("failed to deliver order notifications")
	}
}

func (r *Router) handlePhoto(ctx context.Context, msg *models.Message) {
	chat := msg.Chat.ID
	photo := largestPhoto(msg.Photo)
	log := logging.Enrich(r.logger, logging.Context{UserID: userID(msg.From), ChatID: chat}).
		WithField("file_id", photo.FileID)

	order, err := r.ledger.LatestPendingOrder(ctx, strconv.FormatInt(chat, 10))
	switch {
	case errors.Is(err, domain.ErrNotFound):
		log.WithField("event", "payment_without_order").Info("photo received without a pending order")
		r.send(ctx, chat, msgPaymentFailed)
		return
	case err != nil:
		r.fail(ctx, chat, "handling payment confirmation", msgPaymentFailed, err)
		return
	}

	log = log.WithField("order_id", order.ID)

	var g errgroup.Group
	g.Go(func() error {
		return r.admin.ForwardToAdmin(ctx, chat, msg.ID)
	})
	g.Go(func() error {
		return r.admin.NotifyAdminWithKeyboard(ctx, paymentSummaryText(chat, order), CompleteOrderKeyboard(chat, order.ID))
	})
	if err := g.Wait(); err != nil {
		log.WithField("event", "payment_relay_failed").WithError(err).Error("failed to relay payment confirmation")
		r.send(ctx, chat, msgPaymentFailed)
		return
	}

	log.WithField("event", "payment_relayed").Info("payment confirmation relayed to admin")
	r.send(ctx, chat, msgPaymentReceived)
}

func (r *Router) handleCompleteOrder(ctx context.Context, query *models.CallbackQuery, cb Callback) {
	actor := query.From.ID
	log := logging.Enrich(r.logger, logging.Context{UserID: actor, OrderID: cb.OrderID})

	if !r.admin.IsAdmin(actor) {
		log.WithField("event", "admin_action_denied").WithError(domain.ErrAuthorizationDenied).
			Warn("non-admin tried to complete an order")
		r.answer(ctx, query.ID, msgAdminOnly, true)
		return
	}

	adminChat, messageID := messageRef(query.Message)

	order, err := r.ledger.CompleteOrder(ctx, cb.OrderID)
	switch {
	case errors.Is(err, domain.ErrAlreadyCompleted):
		r.answer(ctx, query.ID, msgAlreadyCompleted, true)
		r.editAdminMessage(ctx, adminChat, messageID)
		return
	case errors.Is(err, domain.ErrNotFound):
		log.WithField("event", "order_not_found").Info("completion requested for unknown order")
		r.answer(ctx, query.ID, msgOrderNotFound, true)
		return
	case err != nil:
		r.answer(ctx, query.ID, msgCompleteFailed, true)
		r.admin.ReportFailure(ctx, cb.UserID, "completing order "+cb.OrderID, err)
		return
	}

	r.answer(ctx, query.ID, "", false)

	customer := cb.UserID
	if stored, err := strconv.ParseInt(order.UserID, 10, 64); err == nil && stored != 0 {
		customer = stored
	}

	var g errgroup.Group
	if messageID != 0 {
		g.Go(func() error {
			return r.msg.EditText(ctx, adminChat, messageID, msgOrderMarked)
		})
	}
	g.Go(func() error {
		return r.msg.SendText(ctx, customer, msgOrderCompleted)
	})
	if err := g.Wait(); err != nil {
		log.WithField("event", "completion_notify_failed").WithError(err).Error("failed to deliver completion notices")
	}
}

func (r *Router) editAdminMessage(ctx context.Context, chat int64, messageID int) {
	if messageID == 0 {
		return
	}
	if err := r.msg.EditText(ctx, chat, messageID, msgOrderMarked); err != nil {
		r.logTransport(err, chat, "edit_admin_message")
	}
}

func (r *Router) handleStatus(ctx context.Context, msg *models.Message) {
	chat := msg.Chat.ID

	order, err := r.ledger.LatestOrder(ctx, strconv.FormatInt(chat, 10))
	switch {
	case errors.Is(err, domain.ErrNotFound):
		r.send(ctx, chat, msgNoOrders)
	case err != nil:
		r.fail(ctx, chat, "checking order status", msgStatusFailed, err)
	default:
		r.send(ctx, chat, orderStatusText(order))
	}
}

func (r *Router) handleStats(ctx context.Context, msg *models.Message) {
	chat := msg.Chat.ID
	if !r.admin.IsAdmin(userID(msg.From)) {
		r.send(ctx, chat, msgAdminOnlyCommand)
		return
	}

	var pending, completed int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pending, err = r.ledger.CountOrders(gctx, domain.StatusPending)
		return err
	})
	g.Go(func() error {
		var err error
		completed, err = r.ledger.CountOrders(gctx, domain.StatusCompleted)
		return err
	})
	if err := g.Wait(); err != nil {
		r.fail(ctx, chat, "loading stats", msgStatsFailed, err)
		return
	}

	r.send(ctx, chat, statsText(pending, completed))
}

// largestPhoto picks the variant with the most pixels; ties go to the later
// entry, matching Telegram's ascending size order.
func largestPhoto(sizes []models.PhotoSize) models.PhotoSize {
	var best models.PhotoSize
	for i, size := range sizes {
		if i == 0 || size.Width*size.Height >= best.Width*best.Height {
			best = size
		}
	}
	return best
}
