package helpers

import (
	"fmt"
	"html"
	"strings"
	"time"

	"xui-keys-bot/internal/constants"
	"xui-keys-bot/internal/services"
)

// FormatKeyGenerated renders the message sent with a new key
func FormatKeyGenerated(key *services.GeneratedKey) string {
	if key.Link == "" {
		return fmt.Sprintf("✅ <b>Key Generated Successfully!</b>\n\nServer: %s\nEmail: <code>%s</code>\n\nThis protocol has no shareable link; import the key from the panel.",
			html.EscapeString(key.ServerName), html.EscapeString(key.Key.Email))
	}
	return fmt.Sprintf("✅ <b>Key Generated Successfully!</b>\n\n<code>%s</code>", html.EscapeString(key.Link))
}

// FormatKeyLink renders one entry of the user's key list
func FormatKeyLink(link services.KeyLink) string {
	return fmt.Sprintf("🔑 <b>%s - %s</b>\n<code>%s</code>",
		html.EscapeString(link.ServerName),
		html.EscapeString(link.Key.Email),
		html.EscapeString(link.Link))
}

// FormatAccountStatus renders the plan and usage of the user's key
func FormatAccountStatus(status *services.AccountStatus, now time.Time) string {
	var sb strings.Builder
	sb.WriteString("📊 <b>Account Status</b>\n")

	user := status.User
	if user.PremiumActive(now) {
		sb.WriteString("💎 <b>Premium Plan</b>\n")
		expiry := "Unlimited"
		if user.PremiumExpiry != nil {
			expiry = user.PremiumExpiry.Format(constants.DateFormat)
		}
		sb.WriteString(fmt.Sprintf("📅 Plan Expiry: %s\n", expiry))
	} else {
		sb.WriteString("👤 <b>Free Plan</b>\n")
	}
	sb.WriteString("-------------------\n")
	sb.WriteString(fmt.Sprintf("🌍 Server: %s\n", html.EscapeString(status.ServerName)))

	stat := status.Stat
	if stat == nil {
		sb.WriteString("❌ Usage data is unavailable. Please check the server.")
		return sb.String()
	}

	limit := "Unlimited"
	if stat.Total > 0 {
		limit = FormatBytes(stat.Total)
	}
	keyExpiry := "Never"
	if stat.ExpiryTime > 0 {
		keyExpiry = time.UnixMilli(stat.ExpiryTime).UTC().Format(constants.DateFormat)
	}

	sb.WriteString(fmt.Sprintf("⬆️ Upload: %s\n", FormatBytes(stat.Up)))
	sb.WriteString(fmt.Sprintf("⬇️ Download: %s\n", FormatBytes(stat.Down)))
	sb.WriteString(fmt.Sprintf("📦 Total Used: %s\n", FormatBytes(stat.Up+stat.Down)))
	sb.WriteString(fmt.Sprintf("🛑 Limit: %s\n", limit))
	sb.WriteString(fmt.Sprintf("⏳ Key Expiry: %s", keyExpiry))
	return sb.String()
}

// FormatPremiumInfo renders the upgrade offer
func FormatPremiumInfo(cost, paymentInfo string) string {
	return fmt.Sprintf("💎 <b>Premium Upgrade</b>\n\nUnlock all servers and unlimited data!\nPrice: %s\n\nPlease transfer to:\n%s\n\nAfter the transfer, send the receipt to an admin.",
		html.EscapeString(cost), html.EscapeString(paymentInfo))
}

// FormatCouponCreated renders a newly created gift code
func FormatCouponCreated(code string, days, uses int) string {
	return fmt.Sprintf("🎁 Coupon Created!\nCode: <code>%s</code>\nDays: %d\nUses: %d", html.EscapeString(code), days, uses)
}
