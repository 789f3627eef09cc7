package telegram

import (
	"errors"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ErrInstanceConflict means another process is polling with the same token
var ErrInstanceConflict = errors.New("another bot instance is polling with this token")

// apiError extracts the Telegram error code and description
func apiError(err error) (int, string, bool) {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr != nil {
		return apiErr.Code, apiErr.Message, true
	}
	return 0, "", false
}

func isConflict(err error) bool {
	if code, _, ok := apiError(err); ok && code == http.StatusConflict {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "terminated by other getUpdates")
}

func isRateLimited(err error) bool {
	code, _, ok := apiError(err)
	return ok && code == http.StatusTooManyRequests
}

func contains(err error, fragment string) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), fragment)
}

// isNotModified reports an edit that would not change the message
func isNotModified(err error) bool {
	return contains(err, "message is not modified")
}

// isEditGone reports an edit whose target cannot be edited anymore
func isEditGone(err error) bool {
	return contains(err, "message to edit not found") || contains(err, "message can't be edited")
}
