package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/target/adverity-fetchbot/internal/domain/model"
	apperrors "github.com/target/adverity-fetchbot/internal/errors"
)

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	WriteJSON(w, p.Code, map[string]string{"error": p.ErrCode, "message": apperrors.GetMessage(p.Err)})
}

// WriteAppError maps an AppError code to an HTTP status and writes it.
func WriteAppError(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case apperrors.ErrCodeUnauthorized:
		status = http.StatusUnauthorized
	case apperrors.ErrCodeValidation, apperrors.ErrCodeDateFormat, apperrors.ErrCodeUnknownStream:
		status = http.StatusBadRequest
	case apperrors.ErrCodeNotFound:
		status = http.StatusNotFound
	case apperrors.ErrCodeConfigurationMissing:
		status = http.StatusServiceUnavailable
	case apperrors.ErrCodeAuditLogFailure, apperrors.ErrCodePollTransient:
		status = http.StatusBadGateway
	case "":
		code = apperrors.ErrCodeInternal
	}
	WriteError(w, ErrorParams{Code: status, ErrCode: string(code), Err: err})
}

// WriteSlack answers a slash command. Slack expects HTTP 200 even for rejections.
func WriteSlack(w http.ResponseWriter, responseType model.ResponseType, text string) {
	WriteJSON(w, http.StatusOK, model.ChatMessage{ResponseType: responseType, Text: text})
}
