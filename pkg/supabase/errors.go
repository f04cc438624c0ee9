package supabase

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Error codes GoTrue returns in "error_code" that callers branch on.
const (
	CodeInvalidCredentials  = "invalid_credentials"
	CodeRefreshTokenInvalid = "refresh_token_not_found"
	CodeRefreshTokenReused  = "refresh_token_already_used"
	CodeSessionNotFound     = "session_not_found"
	CodeEmailNotConfirmed   = "email_not_confirmed"
	CodeOverRequestLimit    = "over_request_rate_limit"
)

// APIError is a non-2xx response from Supabase Auth.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("supabase: HTTP %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("supabase: %s (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// IsInvalidCredentials covers both the current error_code and the legacy OAuth2 shape.
func (e *APIError) IsInvalidCredentials() bool {
	return e.Code == CodeInvalidCredentials || (e.Code == "invalid_grant" && e.Status == http.StatusBadRequest && e.Message == "Invalid login credentials")
}

// IsSessionGone reports whether the refresh token or session can no longer be used.
func (e *APIError) IsSessionGone() bool {
	switch e.Code {
	case CodeRefreshTokenInvalid, CodeRefreshTokenReused, CodeSessionNotFound:
		return true
	}
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// parseAPIError understands {"error_code","msg"} and the older {"error","error_description"}.
func parseAPIError(status int, body []byte) error {
	var raw struct {
		ErrorCode        string `json:"error_code"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(body, &raw); err == nil {
		switch {
		case raw.ErrorCode != "":
			apiErr.Code = raw.ErrorCode
			apiErr.Message = firstNonEmpty(raw.Msg, raw.Message, raw.ErrorDescription)
		case raw.Error != "":
			apiErr.Code = raw.Error
			apiErr.Message = firstNonEmpty(raw.ErrorDescription, raw.Msg, raw.Message)
		default:
			apiErr.Message = firstNonEmpty(raw.Msg, raw.Message)
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
