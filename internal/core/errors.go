package core

// Error codes for domain errors.
const (
	ErrCodeChatNotFound   = "chat_not_found"
	ErrCodeNotParticipant = "not_participant"
	ErrCodeBadRequest     = "bad_request"
	ErrCodeInternal       = "internal"
)

// CoreError wraps a code and human-readable message. Only the message
// crosses the wire; codes are for internal dispatch and tests.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
