package protocol

// ErrorCode identifies the type of error reported to a client.
type ErrorCode uint16

const (
	ErrUnknown      ErrorCode = 0x0000 // Unknown error
	ErrInvalidFrame ErrorCode = 0x0001 // Malformed envelope
	ErrInvalidEvent ErrorCode = 0x0002 // Malformed or incomplete payload
	ErrNotJoined    ErrorCode = 0x0003 // Event for a room the sender has not joined
	ErrRateLimited  ErrorCode = 0x0004 // Send queue full
	ErrServerError  ErrorCode = 0x0100 // Internal server error
	ErrNotFound     ErrorCode = 0x0102 // Referenced entity does not exist
	ErrValidation   ErrorCode = 0x0103 // Store rejected the mutation
)

// String returns the string representation of the error code.
func (ec ErrorCode) String() string {
	switch ec {
	case ErrUnknown:
		return "Unknown"
	case ErrInvalidFrame:
		return "InvalidFrame"
	case ErrInvalidEvent:
		return "InvalidEvent"
	case ErrNotJoined:
		return "NotJoined"
	case ErrRateLimited:
		return "RateLimited"
	case ErrServerError:
		return "ServerError"
	case ErrNotFound:
		return "NotFound"
	case ErrValidation:
		return "Validation"
	default:
		return "Unknown"
	}
}

// ErrorEvent is the payload of an error event. When the failing request
// carried a request id, the envelope echoes it so the client can correlate.
type ErrorEvent struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// NewError creates an ErrorEvent.
func NewError(code ErrorCode, message string) *ErrorEvent {
	return &ErrorEvent{Code: code, Message: message}
}

// Error implements the error interface.
func (e *ErrorEvent) Error() string {
	return e.Code.String() + ": " + e.Message
}
