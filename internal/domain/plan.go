// Package domain defines the storefront's plans, orders, and the errors shared
// by every layer.
package domain

import "github.com/shopspring/decimal"

// Plan is a purchasable VPN subscription. Plans are maintained directly in the
// data store; the bot only reads them.
type Plan struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Details string `json:"details"`
	Price   int64  `json:"price"`
}

// PriceDivisor converts minor units to the displayed thousands.
const PriceDivisor = 1000

// FormatPrice renders a minor-unit price in thousands without trailing zeros:
// 100000 becomes "100" and 150500 becomes "150.5".
func FormatPrice(price int64) string {
	return decimal.NewFromInt(price).Div(decimal.NewFromInt(PriceDivisor)).String()
}
