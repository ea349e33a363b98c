package schema

import (
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrorKind classifies a failed API interaction.
type ErrorKind string

const (
	KindNetwork            ErrorKind = "network"
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindValidation         ErrorKind = "validation"
	KindSessionExpired     ErrorKind = "session_expired"
	KindUnauthorized       ErrorKind = "unauthorized"
	KindRequest            ErrorKind = "request"
	KindServer             ErrorKind = "server"
	KindMalformed          ErrorKind = "malformed"
)

// MessageSessionExpired is reported when a refresh attempt fails.
const MessageSessionExpired = "Session expired. Please login again."

// Sentinel errors, usable with errors.Is against any *Error of the same kind.
var (
	ErrNetwork            = &Error{Kind: KindNetwork}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials}
	ErrValidation         = &Error{Kind: KindValidation}
	ErrSessionExpired     = &Error{Kind: KindSessionExpired}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrRequest            = &Error{Kind: KindRequest}
	ErrServer             = &Error{Kind: KindServer}
	ErrMalformed          = &Error{Kind: KindMalformed}
)

// Error is a failed API interaction reduced to one message and the triggering status.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if text := http.StatusText(e.Status); text != "" {
		return text
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error with the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// WithKind returns a copy of e reclassified as kind.
func (e *Error) WithKind(kind ErrorKind) *Error {
	ret := *e
	ret.Kind = kind
	return &ret
}

// WithDefault returns a copy of e that falls back to message when e carries none.
func (e *Error) WithDefault(message string) *Error {
	ret := *e
	if ret.Message == "" {
		ret.Message = message
	}
	return &ret
}

// NewNetworkError wraps a transport level failure.
func NewNetworkError(err error) *Error {
	ret := &Error{Kind: KindNetwork, cause: err}
	if err != nil {
		ret.Message = err.Error()
	}
	return ret
}

// NewMalformedError reports a response body that could not be decoded.
func NewMalformedError(status int, message string, err error) *Error {
	return &Error{Kind: KindMalformed, Status: status, Message: message, cause: err}
}

// NewSessionExpired reports an unrecoverable refresh failure.
func NewSessionExpired(status int, err error) *Error {
	return &Error{Kind: KindSessionExpired, Status: status, Message: MessageSessionExpired, cause: err}
}

// NewHTTPError classifies a non-2xx response using its status and body.
func NewHTTPError(status int, body []byte) *Error {
	detail := gjson.GetBytes(body, "detail")
	structured := detail.IsArray() || detail.IsObject()
	ret := &Error{Status: status, Message: DetailMessage(body)}
	switch {
	case status >= http.StatusInternalServerError:
		ret.Kind = KindServer
	case status == http.StatusUnauthorized:
		ret.Kind = KindUnauthorized
	case status == http.StatusUnprocessableEntity, status >= 400 && structured:
		ret.Kind = KindValidation
	default:
		ret.Kind = KindRequest
	}
	return ret
}

// DetailMessage extracts the backend "detail" field as text; structured
// validation detail is flattened to "field: message" pairs.
func DetailMessage(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}
	detail := gjson.GetBytes(body, "detail")
	switch {
	case !detail.Exists():
		return ""
	case detail.IsArray():
		var parts []string
		detail.ForEach(func(_, item gjson.Result) bool {
			if part := issueMessage(item); part != "" {
				parts = append(parts, part)
			}
			return true
		})
		if len(parts) == 0 {
			return detail.Raw
		}
		return strings.Join(parts, "; ")
	case detail.IsObject():
		if part := issueMessage(detail); part != "" {
			return part
		}
		return detail.Raw
	default:
		return detail.String()
	}
}

func issueMessage(item gjson.Result) string {
	if item.Type == gjson.String {
		return item.String()
	}
	msg := item.Get("msg").String()
	if msg == "" {
		return ""
	}
	var loc []string
	for i, part := range item.Get("loc").Array() {
		value := part.String()
		if i == 0 && (value == "body" || value == "query" || value == "path") {
			continue
		}
		loc = append(loc, value)
	}
	if len(loc) == 0 {
		return msg
	}
	return strings.Join(loc, ".") + ": " + msg
}
