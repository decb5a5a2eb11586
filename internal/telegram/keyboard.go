package telegram

import (
	"github.com/go-telegram/bot/models"

	"vpn_store_bot/internal/domain"
)

// Reply keyboard labels. They double as text triggers.
const (
	ButtonViewPlans     = "📦 View Plans"
	ButtonClients       = "📱 Download Clients"
	ButtonPaymentStatus = "💳 Payment Status"
	ButtonSupport       = "📱 Support"
	ButtonFAQ           = "❓ FAQ"
	ButtonCompleteOrder = "✅ Complete Order"
)

// InlineButton creates a single inline keyboard button.
func InlineButton(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

// InlineKeyboard creates an inline keyboard from rows of buttons.
func InlineKeyboard(rows ...[]models.InlineKeyboardButton) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: rows,
	}
}

// ButtonRow creates a row of inline buttons.
func ButtonRow(buttons ...models.InlineKeyboardButton) []models.InlineKeyboardButton {
	return buttons
}

// MainMenu is the persistent reply keyboard sent with the welcome message.
func MainMenu() *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{
			{{Text: ButtonViewPlans}},
			{{Text: ButtonClients}, {Text: ButtonPaymentStatus}},
			{{Text: ButtonSupport}, {Text: ButtonFAQ}},
		},
		ResizeKeyboard: true,
	}
}

// PlanKeyboard renders one button per plan, in catalog order.
func PlanKeyboard(plans []domain.Plan) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(plans))
	for _, plan := range plans {
		rows = append(rows, ButtonRow(InlineButton(PlanLabel(plan), SelectPlanPayload(plan.ID))))
	}
	return InlineKeyboard(rows...)
}

// CompleteOrderKeyboard is attached to the admin's payment confirmation summary.
func CompleteOrderKeyboard(userID int64, orderID string) *models.InlineKeyboardMarkup {
	return InlineKeyboard(ButtonRow(InlineButton(ButtonCompleteOrder, CompleteOrderPayload(userID, orderID))))
}
