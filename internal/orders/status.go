package orders

import "strings"

const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

var validStatuses = []string{StatusInProgress, StatusCompleted, StatusCancelled}

func ValidStatus(s string) bool {
	for _, v := range validStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// AllowedStatusList renders the valid set for error messages.
func AllowedStatusList() string {
	return strings.Join(validStatuses, ", ")
}

// CheckTransition returns an empty string when current may move to next.
// Repeating the current status is an idempotent no-op; completed and
// cancelled are terminal.
func CheckTransition(current, next string) string {
	if current == next {
		return ""
	}
	if current != StatusInProgress {
		return "order is already " + current
	}
	return ""
}
