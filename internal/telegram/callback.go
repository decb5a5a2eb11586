package telegram

import (
	"strconv"
	"strings"
)

const (
	planPrefix          = "plan_"
	completeOrderPrefix = "complete_order_"
)

// CallbackKind tags a decoded callback payload.
type CallbackKind int

const (
	CallbackUnknown CallbackKind = iota
	CallbackSelectPlan
	CallbackCompleteOrder
)

func (k CallbackKind) String() string {
	switch k {
	case CallbackSelectPlan:
		return "select_plan"
	case CallbackCompleteOrder:
		return "complete_order"
	default:
		return "unknown"
	}
}

// Callback is an inline button payload decoded at the router boundary.
// PlanID is set for CallbackSelectPlan; UserID and OrderID for
// CallbackCompleteOrder.
type Callback struct {
	Kind    CallbackKind
	PlanID  int64
	UserID  int64
	OrderID string
}

// SelectPlanPayload encodes the payload of a plan button.
func SelectPlanPayload(planID int64) string {
	return planPrefix + strconv.FormatInt(planID, 10)
}

// CompleteOrderPayload encodes the payload of the admin completion button.
func CompleteOrderPayload(userID int64, orderID string) string {
	return completeOrderPrefix + strconv.FormatInt(userID, 10) + "_" + orderID
}

// DecodeCallback parses data into a Callback. Anything that does not match a
// known shape decodes as CallbackUnknown.
func DecodeCallback(data string) Callback {
	data = strings.TrimSpace(data)

	switch {
	case strings.HasPrefix(data, completeOrderPrefix):
		rest := strings.TrimPrefix(data, completeOrderPrefix)
		rawUser, orderID, ok := strings.Cut(rest, "_")
		if !ok || orderID == "" || strings.Contains(orderID, "_") {
			return Callback{Kind: CallbackUnknown}
		}
		userID, err := strconv.ParseInt(rawUser, 10, 64)
		if err != nil {
			return Callback{Kind: CallbackUnknown}
		}
		return Callback{Kind: CallbackCompleteOrder, UserID: userID, OrderID: orderID}

	case strings.HasPrefix(data, planPrefix):
		planID, err := strconv.ParseInt(strings.TrimPrefix(data, planPrefix), 10, 64)
		if err != nil {
			return Callback{Kind: CallbackUnknown}
		}
		return Callback{Kind: CallbackSelectPlan, PlanID: planID}

	default:
		return Callback{Kind: CallbackUnknown}
	}
}
