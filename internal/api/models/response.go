package models

import (
	"time"

	"negprice/internal/engine"
)

// AnalyzeResponse wraps the payload with its permalink id and request echo.
type AnalyzeResponse struct {
	ResultID string                `json:"result_id"`
	Analysis *engine.ReportPayload `json:"analysis"`
	Metadata AnalyzeMetadata       `json:"metadata"`
}

type AnalyzeMetadata struct {
	AnalyzedAt time.Time `json:"analyzed_at"`
	Rows       int       `json:"rows"`
	Timezone   string    `json:"timezone"`
	Currency   string    `json:"currency"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Errorf builds an ErrorResponse.
func Errorf(code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}
