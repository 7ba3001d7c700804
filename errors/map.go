package errors

import "errors"

// ToClientError maps an internal error to the code and message surfaced to
// the requesting connection. Anything unrecognized becomes a generic store
// error: internals never leak to clients.
func ToClientError(err error) (code string, message string) {
	switch {
	case errors.Is(err, ErrNotGroupMember):
		return "authorization_error", "Not authorized to send message to this group"
	case errors.Is(err, ErrNotMessageOwner):
		return "authorization_error", "Not authorized to modify this message"
	case errors.Is(err, ErrGroupNotFound):
		return "not_found", "Group not found"
	case errors.Is(err, ErrMessageNotFound):
		return "not_found", "Message not found"
	case errors.Is(err, ErrValidation):
		return "validation_error", "Invalid message payload"
	case errors.Is(err, ErrInvalidToken):
		return "authentication_error", "Invalid or expired token"
	default:
		return "store_error", "Operation could not be completed"
	}
}
