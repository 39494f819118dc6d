package helpers

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"xui-keys-bot/internal/services"
)

var byteUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// FormatBytes renders a byte count with binary units and at most two decimals
func FormatBytes(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}

	value := float64(bytes)
	i := 0
	for value >= 1024 && i < len(byteUnits)-1 {
		value /= 1024
		i++
	}
	value = math.Round(value*100) / 100
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + byteUnits[i]
}

// FormatServerStatus renders the health of every server
func FormatServerStatus(statuses []services.ServerStatus) string {
	if len(statuses) == 0 {
		return "🖥️ <b>Server Status</b>\n\nNo servers configured."
	}

	var sb strings.Builder
	sb.WriteString("🖥️ <b>Server Status</b>\n\n")
	for _, s := range statuses {
		name := html.EscapeString(s.Name)
		if s.Online {
			sb.WriteString(fmt.Sprintf("✅ %s: Online (%dms)\n", name, s.LatencyMs))
		} else {
			sb.WriteString(fmt.Sprintf("❌ %s: Offline\n", name))
		}
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
