package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

var (
	ErrUnavailable        = errors.New("server unavailable")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrNoSession          = errors.New("auth session missing")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrInvalidTable       = errors.New("invalid table name")
)

// codeSingleRow is PostgREST's code for a singular response that matched
// zero or several rows.
const codeSingleRow = "PGRST116"

// APIError is a failure reported by the backend.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Is lets errors.Is match an APIError against the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound || e.Code == codeSingleRow
	case ErrUnavailable:
		return e.Status >= http.StatusInternalServerError
	case ErrInvalidCredentials:
		return e.Code == "invalid_grant" || e.Code == "invalid_credentials"
	}
	return false
}

func errSingleRow(n int) *APIError {
	return &APIError{
		Status:  http.StatusNotAcceptable,
		Code:    codeSingleRow,
		Message: fmt.Sprintf("JSON object requested, %d rows returned", n),
	}
}

// hasStatus reports whether err is an APIError with one of the statuses.
func hasStatus(err error, statuses ...int) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, s := range statuses {
		if apiErr.Status == s {
			return true
		}
	}
	return false
}

// errorBody covers both GoTrue and PostgREST error payloads.
type errorBody struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(status)
		}
		return apiErr
	}

	switch {
	case eb.ErrorCode != "":
		apiErr.Code = eb.ErrorCode
	case eb.Error != "":
		apiErr.Code = eb.Error
	default:
		if code, ok := eb.Code.(string); ok {
			apiErr.Code = code
		}
	}

	for _, m := range []string{eb.Message, eb.Msg, eb.ErrorDescription, eb.Error} {
		if m != "" {
			apiErr.Message = m
			break
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateTableName rejects names that are not plain SQL identifiers.
func ValidateTableName(table string) error {
	if !tableNameRe.MatchString(table) {
		return fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	return nil
}
