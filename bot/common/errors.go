package common

import (
	"errors"
	"fmt"
)

// BotError represents a structured error with user-facing and internal messages
type BotError struct {
	UserMessage string      // Message shown to the Discord user
	LogMessage  string      // Internal message for logging
	Err         error       // Underlying error
	Context     interface{} // Additional context for logging
}

// Error implements the error interface
func (e *BotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.LogMessage, e.Err)
	}
	return e.LogMessage
}

// Unwrap returns the underlying error
func (e *BotError) Unwrap() error {
	return e.Err
}

// NewUserError creates an error for user-caused issues (bad arguments, unknown names, etc)
func NewUserError(userMessage string, logMessage string) *BotError {
	return &BotError{
		UserMessage: userMessage,
		LogMessage:  logMessage,
	}
}

// NewSystemError creates an error for system issues (database, unexpected state, etc)
func NewSystemError(err error, logMessage string) *BotError {
	return &BotError{
		UserMessage: "❌ Something went wrong. Please try again later.",
		LogMessage:  logMessage,
		Err:         err,
	}
}

// UserMessage returns the text to show for err. BotErrors carry their own
// message; anything else is reported with its reason.
func UserMessage(err error) string {
	var botErr *BotError
	if errors.As(err, &botErr) {
		return botErr.UserMessage
	}
	return fmt.Sprintf("something went wrong -> [%v]", err)
}
