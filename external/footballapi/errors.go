package footballapi

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	crerr "github.com/cockroachdb/errors"
)

var (
	ErrNotFound       = stderrors.New("football api resource not found")
	ErrValidation     = stderrors.New("football api rejected request parameters")
	ErrInvalidPayload = stderrors.New("football api returned an invalid payload")

	errFootballAPITransient = crerr.New("football api transient failure")
)

// ValidationDetail is one entry of the upstream 422 body.
type ValidationDetail struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// HTTPValidationError is the upstream 422 body.
type HTTPValidationError struct {
	Detail []ValidationDetail `json:"detail"`
}

func (v HTTPValidationError) String() string {
	parts := make([]string, 0, len(v.Detail))
	for _, item := range v.Detail {
		loc := make([]string, 0, len(item.Loc))
		for _, segment := range item.Loc {
			loc = append(loc, fmt.Sprint(segment))
		}
		parts = append(parts, strings.Join(loc, ".")+": "+item.Msg)
	}
	return strings.Join(parts, "; ")
}

// StatusError is returned for every non-2xx upstream response.
type StatusError struct {
	Method     string
	Path       string
	Status     int
	Body       []byte
	Validation *HTTPValidationError
}

func (e *StatusError) Error() string {
	if e.Validation != nil && len(e.Validation.Detail) > 0 {
		return fmt.Sprintf("football api %s %s status=%d: %s", e.Method, e.Path, e.Status, e.Validation)
	}
	return fmt.Sprintf("football api %s %s status=%d body=%s", e.Method, e.Path, e.Status, abbreviateBody(e.Body))
}

func (e *StatusError) HTTPStatus() int {
	return e.Status
}

func (e *StatusError) Unwrap() []error {
	switch {
	case e.Status == http.StatusNotFound:
		return []error{ErrNotFound}
	case e.Status == http.StatusUnprocessableEntity:
		return []error{ErrValidation}
	case isRetryableStatus(e.Status):
		return []error{errFootballAPITransient}
	default:
		return nil
	}
}

func isCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errFootballAPITransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

const maxErrorBody = 240

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= maxErrorBody {
		return text
	}
	cut := maxErrorBody
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
