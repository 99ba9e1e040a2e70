package nats

import (
	"fmt"
)

func GetHandCompletedSubject(tableID string) string {
	return fmt.Sprintf("table.%s.hand.completed", tableID)
}

// GetAllHandsCompletedSubject matches the completion records of every table.
func GetAllHandsCompletedSubject() string {
	return "table.*.hand.completed"
}
