package helpers

import (
	"fmt"
	"html"
	"strings"
	"time"

	"xui-keys-bot/internal/constants"
	"xui-keys-bot/internal/models"
	"xui-keys-bot/internal/store"
)

// FormatUserInfo renders a user's plan for admins
func FormatUserInfo(user *models.User, keyCount int, now time.Time) string {
	var sb strings.Builder
	sb.WriteString("👤 <b>User Info</b>\n")
	sb.WriteString(fmt.Sprintf("ID: <code>%d</code>\n", user.TgID))
	sb.WriteString(fmt.Sprintf("Name: %s\n", html.EscapeString(user.DisplayName())))

	if user.PremiumActive(now) {
		sb.WriteString("Premium: Yes\n")
		if user.PremiumExpiry != nil {
			sb.WriteString(fmt.Sprintf("Expiry: %s\n", user.PremiumExpiry.Format(constants.TimestampFormat)))
		}
	} else {
		sb.WriteString("Premium: No\n")
	}
	if user.Banned {
		sb.WriteString("Banned: Yes\n")
	}
	sb.WriteString(fmt.Sprintf("Keys: %d", keyCount))
	return sb.String()
}

// FormatAdminDashboard renders counters and the admin command reference
func FormatAdminDashboard(stats store.Stats) string {
	var sb strings.Builder
	sb.WriteString("🛠️ <b>Admin Dashboard</b>\n\n")
	sb.WriteString(fmt.Sprintf("👥 Total Users: %d\n", stats.Users))
	sb.WriteString(fmt.Sprintf("💎 Premium Users: %d\n", stats.Premium))
	sb.WriteString(fmt.Sprintf("🔑 Active Keys: %d\n\n", stats.Keys))
	sb.WriteString("<b>Commands:</b>\n")
	sb.WriteString("/admin_user &lt;id&gt; - Check User\n")
	sb.WriteString("/add_premium &lt;id&gt; &lt;days&gt; - Give Premium\n")
	sb.WriteString("/remove_premium &lt;id&gt; - Remove Premium\n")
	sb.WriteString("/ban &lt;id&gt; - Ban User\n")
	sb.WriteString("/unban &lt;id&gt; - Unban User\n")
	sb.WriteString("/create_code &lt;days&gt; [uses] - Gift Code\n")
	sb.WriteString("/maintenance &lt;on|off&gt; - Maintenance\n")
	sb.WriteString("/server_status - Check Servers")
	return sb.String()
}
