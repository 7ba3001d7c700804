package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")

	ErrGroupNotFound   = fmt.Errorf("group not found")
	ErrMessageNotFound = fmt.Errorf("message not found")

	// ErrNotGroupMember is surfaced when a sender is not part of the
	// group's durable membership at call time.
	ErrNotGroupMember = fmt.Errorf("not authorized to send message to this group")

	// ErrNotMessageOwner covers edit and delete: only the original sender
	// may mutate a message, group admins included.
	ErrNotMessageOwner = fmt.Errorf("not authorized to modify this message")

	ErrValidation   = fmt.Errorf("invalid payload")
	ErrInvalidToken = fmt.Errorf("invalid or expired token")
)
