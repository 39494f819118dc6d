package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"xui-keys-bot/internal/models"
	"xui-keys-bot/internal/services"
	"xui-keys-bot/internal/store"
	"xui-keys-bot/pkg/panelclient"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{in: 0, want: "0 Bytes"},
		{in: -10, want: "0 Bytes"},
		{in: 512, want: "512 Bytes"},
		{in: 1024, want: "1 KB"},
		{in: 1536, want: "1.5 KB"},
		{in: 1024 * 1024 * 1024, want: "1 GB"},
		{in: 1288490189, want: "1.2 GB"},
		{in: 5 * 1024 * 1024 * 1024 * 1024 * 1024, want: "5120 TB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatBytes(tt.in))
		})
	}
}

func TestFormatServerStatus(t *testing.T) {
	got := FormatServerStatus([]services.ServerStatus{
		{ID: "sg", Name: "Singapore", Online: true, LatencyMs: 42},
		{ID: "jp", Name: "Tokyo <1>"},
	})
	assert.Equal(t, "🖥️ <b>Server Status</b>\n\n✅ Singapore: Online (42ms)\n❌ Tokyo &lt;1&gt;: Offline", got)
}

func TestFormatKeyGenerated(t *testing.T) {
	got := FormatKeyGenerated(&services.GeneratedKey{Link: "vless://a@h:1?type=tcp&security=tls#x"})
	assert.Equal(t, "✅ <b>Key Generated Successfully!</b>\n\n<code>vless://a@h:1?type=tcp&amp;security=tls#x</code>", got)

	got = FormatKeyGenerated(&services.GeneratedKey{ServerName: "SG", Key: models.Key{Email: "tg_1_2"}})
	assert.Contains(t, got, "<code>tg_1_2</code>")
	assert.Contains(t, got, "no shareable link")
}

func TestFormatAccountStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	expiry := now.AddDate(0, 0, 10)

	premium := FormatAccountStatus(&services.AccountStatus{
		User:       models.User{Premium: true, PremiumExpiry: &expiry},
		ServerName: "Singapore",
		Stat:       &panelclient.ClientStat{Up: 1024, Down: 2048},
	}, now)
	assert.Equal(t, "📊 <b>Account Status</b>\n"+
		"💎 <b>Premium Plan</b>\n"+
		"📅 Plan Expiry: 2025-06-11\n"+
		"-------------------\n"+
		"🌍 Server: Singapore\n"+
		"⬆️ Upload: 1 KB\n"+
		"⬇️ Download: 2 KB\n"+
		"📦 Total Used: 3 KB\n"+
		"🛑 Limit: Unlimited\n"+
		"⏳ Key Expiry: Never", premium)

	free := FormatAccountStatus(&services.AccountStatus{
		ServerName: "Singapore",
		Stat: &panelclient.ClientStat{
			Total:      1024 * 1024 * 1024,
			ExpiryTime: expiry.UnixMilli(),
		},
	}, now)
	assert.Contains(t, free, "👤 <b>Free Plan</b>\n-------------------")
	assert.Contains(t, free, "🛑 Limit: 1 GB")
	assert.Contains(t, free, "⏳ Key Expiry: 2025-06-11")

	missing := FormatAccountStatus(&services.AccountStatus{ServerName: "Singapore"}, now)
	assert.Contains(t, missing, "Usage data is unavailable")
}

func TestFormatUserInfo(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	expiry := now.Add(time.Hour)

	got := FormatUserInfo(&models.User{TgID: 7, Username: "neo", Premium: true, PremiumExpiry: &expiry, Banned: true}, 2, now)
	assert.Equal(t, "👤 <b>User Info</b>\nID: <code>7</code>\nName: @neo\nPremium: Yes\nExpiry: 2025-06-01 01:00:00\nBanned: Yes\nKeys: 2", got)

	got = FormatUserInfo(&models.User{TgID: 8, FirstName: "Trin"}, 0, now)
	assert.Equal(t, "👤 <b>User Info</b>\nID: <code>8</code>\nName: Trin\nPremium: No\nKeys: 0", got)
}

func TestFormatAdminDashboard(t *testing.T) {
	got := FormatAdminDashboard(store.Stats{Users: 10, Premium: 3, Keys: 7})
	assert.Contains(t, got, "👥 Total Users: 10\n💎 Premium Users: 3\n🔑 Active Keys: 7")
	assert.Contains(t, got, "/create_code &lt;days&gt; [uses]")
}
