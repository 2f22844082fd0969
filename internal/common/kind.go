package common

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
)

// Kind classifies an error for the caller.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindAuthRequired
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "Conflict"
	case KindAuthRequired:
		return "AuthRequired"
	default:
		return "Internal"
	}
}

// Status returns the HTTP status code carried by errors of this kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindAuthRequired:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Stable message identifiers returned to API callers.
const (
	MsgRequestInvalid         = "request_invalid"
	MsgSigninRequired         = "signin_required"
	MsgLoginFailed            = "login_failed"
	MsgInternal               = "internal_error"
	MsgUserNotExist           = "user_not_exist"
	MsgUserAlreadyExist       = "user_already_exist"
	MsgUserIDInvalid          = "user_id_invalid"
	MsgUserNameInvalid        = "user_name_invalid"
	MsgPasswordInvalid        = "user_password_invalid"
	MsgDocumentNotExist       = "document_not_exist"
	MsgDocumentAlreadyUpdated = "document_already_updated"
	MsgDocumentInvalid        = "document_invalid"
	MsgFileNotExist           = "file_not_exist"
	MsgFileAlreadyUpdated     = "file_already_updated"
	MsgFileInvalid            = "file_invalid"
	MsgTagNotExist            = "tag_not_exist"
	MsgTagInvalid             = "tag_invalid"
	MsgCommentNotExist        = "comment_not_exist"
	MsgCommentInvalid         = "comment_invalid"
	MsgHistoryNotExist        = "history_not_exist"
	MsgSessionExpired         = "session_expired"
)

// Error is the normalized error handed to API callers. It wraps the cause so
// errors.Is keeps working against the repository sentinels.
type Error struct {
	Kind      Kind
	MessageID string
	Err       error
	stack     []byte
}

func newError(kind Kind, msgID string, cause error) *Error {
	return &Error{Kind: kind, MessageID: msgID, Err: cause, stack: debug.Stack()}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.MessageID, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.MessageID)
}

func (e *Error) Unwrap() error { return e.Err }

// Status is the HTTP status code for the error.
func (e *Error) Status() int { return e.Kind.Status() }

// Stack is the goroutine stack captured when the error was created.
func (e *Error) Stack() string { return string(e.stack) }

func Validation(msgID string) *Error { return newError(KindValidation, msgID, nil) }

func NotFound(msgID string, cause error) *Error { return newError(KindNotFound, msgID, cause) }

func Conflict(msgID string, cause error) *Error { return newError(KindConflict, msgID, cause) }

func AuthRequired(msgID string) *Error { return newError(KindAuthRequired, msgID, nil) }

func Internal(cause error) *Error { return newError(KindInternal, MsgInternal, cause) }

// AsError returns err as *Error, classifying anything unknown as Internal.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// IsKind reports whether err normalizes to the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
