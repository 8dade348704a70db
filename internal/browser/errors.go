package browser

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned by page operations while the session gate is closed.
var ErrNotAuthenticated = errors.New("browser: not authenticated")

// ErrInvalidPassword is returned by SharedSecret when the password does not match.
var ErrInvalidPassword = errors.New("incorrect password")

// Op names a browser operation. It picks the generic text of an UnexpectedError.
type Op string

const (
	OpLoad         Op = "load"
	OpCreateFolder Op = "createFolder"
	OpUpload       Op = "upload"
	OpDeleteFolder Op = "deleteFolder"
	OpDeleteImage  Op = "deleteImage"
	OpDelete       Op = "delete"
	OpLogin        Op = "login"
	OpLogout       Op = "logout"
)

var genericMessages = map[Op]string{
	OpLoad:         "Could not load folder contents",
	OpCreateFolder: "Could not create folder",
	OpUpload:       "Could not upload file",
	OpDeleteFolder: "Could not delete folder",
	OpDeleteImage:  "Could not delete image",
	OpDelete:       "Could not delete entry",
	OpLogin:        "Could not sign in",
	OpLogout:       "Could not sign out",
}

// ValidationError is a local input failure. No request is issued.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// BackendError is a non-2xx response. Message is the server's "message" or "error" field.
type BackendError struct {
	Op      Op
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	return e.Message
}

// UnexpectedError wraps a network or decoding failure. Its text is generic per operation.
type UnexpectedError struct {
	Op  Op
	Err error
}

func (e *UnexpectedError) Error() string {
	if msg, ok := genericMessages[e.Op]; ok {
		return msg
	}
	return fmt.Sprintf("Unexpected error during %s", e.Op)
}

func (e *UnexpectedError) Unwrap() error {
	return e.Err
}

// asOpError labels err with op. Untyped errors become an UnexpectedError.
func asOpError(op Op, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidPassword) || errors.Is(err, ErrNotAuthenticated) {
		return err
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return err
	}
	var be *BackendError
	if errors.As(err, &be) {
		labeled := *be
		labeled.Op = op
		return &labeled
	}
	var ue *UnexpectedError
	if errors.As(err, &ue) {
		return &UnexpectedError{Op: op, Err: ue.Err}
	}
	return &UnexpectedError{Op: op, Err: err}
}

// UserMessage returns the text a toast should show for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
