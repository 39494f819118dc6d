package validation

import (
	"fmt"
	"strconv"
	"strings"

	"xui-keys-bot/internal/constants"
	apperrors "xui-keys-bot/internal/errors"
)

// ParseTelegramID parses a positive Telegram user id
func ParseTelegramID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, &apperrors.ValidationError{
			Field:   "user id",
			Message: "must be a positive number",
		}
	}
	return id, nil
}

// ValidateDuration validates and parses a duration in days
func ValidateDuration(durationStr string) (int, error) {
	days, err := strconv.Atoi(strings.TrimSpace(durationStr))
	if err != nil {
		return 0, &apperrors.ValidationError{
			Field:   "days",
			Message: "must be a number",
		}
	}

	if days < 1 {
		return 0, &apperrors.ValidationError{
			Field:   "days",
			Message: "must be at least 1",
		}
	}

	if days > constants.MaxDurationDays {
		return 0, &apperrors.ValidationError{
			Field:   "days",
			Message: fmt.Sprintf("cannot exceed %d", constants.MaxDurationDays),
		}
	}

	return days, nil
}

// ParseUses parses how many times a coupon may be redeemed; empty means the default
func ParseUses(s string) (int, error) {
	if strings.TrimSpace(s) == "" {
		return constants.DefaultCouponUses, nil
	}
	uses, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || uses < 1 {
		return 0, &apperrors.ValidationError{
			Field:   "uses",
			Message: "must be a positive number",
		}
	}
	return uses, nil
}

// ParseToggle parses "on" or "off"
func ParseToggle(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, &apperrors.ValidationError{
			Field:   "mode",
			Message: "use 'on' or 'off'",
		}
	}
}
