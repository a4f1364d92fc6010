package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/lingualoop/learning-api/internal/domain"
	"github.com/lingualoop/learning-api/internal/logging"
	"go.uber.org/zap"
)

// CORS headers sent with every response.
var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "Content-Type,Authorization,X-Amz-Date,X-Api-Key,X-Amz-Security-Token",
	"Access-Control-Allow-Methods": "GET,POST,OPTIONS",
}

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func headers(contentType string) map[string]string {
	h := make(map[string]string, len(corsHeaders)+1)
	for k, v := range corsHeaders {
		h[k] = v
	}
	if contentType != "" {
		h["Content-Type"] = contentType
	}
	return h
}

// JSON returns a JSON response with CORS headers.
func JSON(status int, body any) events.APIGatewayProxyResponse {
	data, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		data, _ = json.Marshal(ErrorBody{Error: "internal error", Code: "InternalError"})
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    headers("application/json"),
		Body:       string(data),
	}
}

// Preflight answers a CORS preflight request.
func Preflight() events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusNoContent,
		Headers:    headers(""),
	}
}

// Error returns a JSON error response with an explicit status and code.
func Error(status int, message, code string) events.APIGatewayProxyResponse {
	return JSON(status, ErrorBody{Error: message, Code: code})
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	switch domain.Kind(err) {
	case "MissingUserId", "MissingLanguagePreferences", "UnsupportedLanguage", "InvalidInput":
		return http.StatusBadRequest
	case "UserNotFound":
		return http.StatusNotFound
	case "ProviderFailure":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail logs err and turns it into an error response. Client errors carry
// their message; server errors carry a generic one.
func (h *Handler) fail(ctx context.Context, err error) (events.APIGatewayProxyResponse, error) {
	status := StatusFor(err)
	kind := domain.Kind(err)
	logger := h.logger(ctx).With(
		zap.String(logging.FieldErrorKind, kind),
		zap.Int(logging.FieldStatus, status),
		zap.Error(err),
	)

	message := err.Error()
	switch {
	case status == http.StatusBadGateway:
		logger.Error("provider call failed")
		message = "upstream service failed"
	case status >= http.StatusInternalServerError:
		logger.Error("request failed")
		message = "internal error"
	case errors.Is(err, domain.ErrMissingLanguagePreferences), errors.Is(err, domain.ErrUnsupportedLanguage):
		logger.Warn("language resolution failed")
	default:
		logger.Info("request rejected")
	}
	return Error(status, message, kind), nil
}

func ok(body any) (events.APIGatewayProxyResponse, error) {
	return JSON(http.StatusOK, body), nil
}
