package telegram

import (
	"fmt"
	"strings"

	"vpn_store_bot/internal/config"
	"vpn_store_bot/internal/domain"
)

const (
	msgWelcome = `🌟 به Mr.Gnome VPN Bot خوش آمدید! 🌟

ما خدمات VPN با کیفیت بالا را با:
• اتصالات سریع و قابل اعتماد
• پشتیبانی از چند دستگاه
• مرور امن و خصوصی
• پشتیبانی 24 ساعته مشتری 📞

برای مشاهده بسته های موجود ما از /plans استفاده کنید.
از /clients برای دانلود کلاینت های VPN برای دستگاه های خود استفاده کنید.`

	msgChoosePlan       = "🌟 طرح VPN خود را انتخاب کنید:"
	msgNoPlans          = "⚠️ No plans found. Please try again later."
	msgPlansFailed      = "❌ خطا در دریافت طرح‌ها. لطفاً بعداً دوباره امتحان کنید."
	msgPlanNotFound     = "❌ Plan not found. Please try again."
	msgOrderFailedAlert = "❌ Error processing your order. Please try again."
	msgOrderFailed      = "Sorry, there was an error processing your order. Please try again later."
	msgPaymentFailed    = "Sorry, there was an error processing your payment confirmation. Please try again or contact support."
	msgPaymentReceived  = "✅ ممنون تایید پرداخت شما دریافت شده و در حال بررسی است."
	msgAdminOnly        = "⚠️ Only admin can complete orders!"
	msgAdminOnlyCommand = "⚠️ This command is only available to the admin."
	msgOrderMarked      = "✅سفارش به عنوان تکمیل شده علامت گذاری شد! اکنون می توانید اعتبار VPN را برای کاربر ارسال کنید."
	msgOrderCompleted   = "✅ سفارش شما تکمیل شد لطفا صبر کنید تا مدیر اعتبار VPN شما را برای شما ارسال کند."
	msgAlreadyCompleted = "ℹ️ This order is already completed."
	msgOrderNotFound    = "❌ Order not found."
	msgCompleteFailed   = "❌ Error updating order status. Please try again."
	msgNoOrders         = "You have no orders yet. Use /plans to choose a plan."
	msgStatusFailed     = "Sorry, there was an error checking your order. Please try again later."
	msgStatsFailed      = "❌ Error loading order statistics."

	msgFAQ = `❓ سوالات متداول

سؤال: چگونه به VPN متصل شوم؟
پاسخ: 1. مشتری VPN مناسب را برای دستگاه خود دانلود کنید (دستور کلاینت/)
2. کلاینت را نصب کنید
3. اعتبارنامه هایی را که پس از تأیید پرداخت ارسال خواهیم کرد را وارد کنید.
4. متصل شوید و از مرور ایمن لذت ببرید!`
)

// PlanLabel is the inline button text for plan, e.g. "Gold - 100T".
func PlanLabel(plan domain.Plan) string {
	return fmt.Sprintf("%s - %sT", plan.Name, domain.FormatPrice(plan.Price))
}

func orderDetailsText(plan domain.Plan, storefront config.Storefront) string {
	var b strings.Builder
	b.WriteString("📦 Order Details:\n")
	fmt.Fprintf(&b, "Plan: %s\n", plan.Name)
	if details := strings.TrimSpace(plan.Details); details != "" {
		b.WriteString(details)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Price: %sT\n\n", domain.FormatPrice(plan.Price))
	fmt.Fprintf(&b, "لطفاً عکس از رسید پرداخت خود (فقط بانک، برای تماس با پشتیبانی تماس بگیرید %s) ارسال کنید.\n\n", storefront.Support.Telegram)
	b.WriteString("شماره کارت جهت واریز:\n")
	b.WriteString(storefront.Payment.CardNumber)
	b.WriteString("\n\n")
	b.WriteString(storefront.Payment.BankName)
	b.WriteString("\n\n")
	b.WriteString("پس از تأیید پرداخت شما، اعتبار VPN خود را دریافت خواهید کرد.\n")
	b.WriteString("⚠️ مهم: مطمئن شوید که مشتری VPN را برای دستگاه(های) خود با استفاده از دستور /clients دانلود کرده اید.")
	return b.String()
}

func newOrderAlertText(userID int64, plan domain.Plan, order domain.Order) string {
	return fmt.Sprintf("🔔 New Order Alert!\nUser ID: %d\nOrder ID: %s\nPlan: %s\nAmount: %sT\nStatus: Pending Payment",
		userID, order.ID, plan.Name, domain.FormatPrice(order.Amount))
}

func paymentSummaryText(userID int64, order domain.Order) string {
	return fmt.Sprintf("💳 Payment Confirmation Received\nFrom User: %d\nOrder Details: ID: %s Plan: %d Amount: %sT",
		userID, order.ID, order.PlanID, domain.FormatPrice(order.Amount))
}

func clientsText(links config.ClientLinks) string {
	return fmt.Sprintf(`📱 دانلودهای مشتری VPN

مشتری VPN ما را برای دستگاه خود بارگیری کنید:

🤖 اندروید: %s
💻 ویندوز: %s
🍏 macOS: %s

⚠️ مهم: قبل از استفاده از سرویس VPN مطمئن شوید که کلاینت صحیح دستگاه خود را دانلود و نصب کنید. به کمک نیاز دارید؟ با تیم پشتیبانی ما تماس بگیرید!`,
		links.Android, links.Windows, links.MacOS)
}

func supportText(support config.Support) string {
	return fmt.Sprintf("Need help? Contact our support:\n📧 Email: %s\n💬 Telegram: %s", support.Email, support.Telegram)
}

func orderStatusText(order domain.Order) string {
	status := "⏳ Pending Payment"
	if order.Status == domain.StatusCompleted {
		status = "✅ Completed"
	}
	return fmt.Sprintf("🧾 Your latest order\nOrder ID: %s\nPlan: %d\nAmount: %sT\nStatus: %s",
		order.ID, order.PlanID, domain.FormatPrice(order.Amount), status)
}

func statsText(pending, completed int64) string {
	return fmt.Sprintf("📊 Orders\nPending: %d\nCompleted: %d\nTotal: %d", pending, completed, pending+completed)
}
