package e621

import (
	"encoding/json"
	"net/http"
	"strings"
)

// verifyResponse applies the error classification shared by every client:
//
//   - 4xx: CallerError carrying the server-supplied message and the raw
//     payload
//   - >= 500: ServiceError
//   - any other status with a non-JSON body (other than 204) is a
//     CallerError, since the service answers HTML when handed garbage; a
//     3xx carrying a JSON body verifies successfully
//   - 204: success with no body
func verifyResponse(status int, contentType string, body []byte) error {
	if status >= 400 && status < 500 {
		return &CallerError{
			StatusCode: status,
			Message:    serverMessage(body),
			Response:   body,
		}
	}
	if status >= 500 {
		return &ServiceError{StatusCode: status, Reason: http.StatusText(status)}
	}

	if !strings.Contains(contentType, "application/json") && status != http.StatusNoContent {
		if strings.Contains(string(body), "Not found.") {
			return &CallerError{StatusCode: status, Message: "Not found."}
		}
		return &CallerError{StatusCode: status, Message: "Invalid input or server error."}
	}
	return nil
}

// serverMessage pulls the human-readable message out of an error payload.
// The service is inconsistent about the field name.
func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Reason  string `json:"reason"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "Invalid input or server error."
	}
	if payload.Message != "" {
		return payload.Message
	}
	if payload.Reason != "" {
		return payload.Reason
	}
	return "Invalid input or server error."
}
