package handler

import "github.com/Marusmurong/mall-sub000/internal/interfaces/http/dto"

// APIResponse documents the envelope with a typed data field
// @Description Standard response envelope
type APIResponse[T any] struct {
	Code      string    `json:"code" example:"OK"`
	Message   string    `json:"message" example:"success"`
	Data      T         `json:"data"`
	Meta      *dto.Meta `json:"meta,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// ErrorResponse documents a failed request; data is null or carries field errors
// @Description Error envelope
type ErrorResponse struct {
	Code      string `json:"code" example:"ERR_NOT_FOUND"`
	Message   string `json:"message" example:"Resource not found"`
	Data      any    `json:"data"`
	RequestID string `json:"request_id,omitempty"`
}

// MessageData carries a human readable confirmation
// @Description Confirmation message
type MessageData struct {
	Message string `json:"message" example:"done"`
}
