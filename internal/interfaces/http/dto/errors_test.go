package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeNotVisible, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeInsufficientStock, http.StatusUnprocessableEntity},
		{ErrCodePaymentUnsupported, http.StatusBadRequest},
		{ErrCodeGateway, http.StatusBadGateway},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeInvalidSignature, http.StatusUnauthorized},
		{"ERR_GOODS_NOT_FOUND", http.StatusNotFound},
		{"ERR_INVALID_COLOR", http.StatusBadRequest},
		{"ERR_ALREADY_PAID", http.StatusConflict},
		{"ERR_EMPTY_CART", http.StatusUnprocessableEntity},
		{"ERR_UNKNOWN", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"NOT_FOUND", ErrCodeNotFound},
		{"INVALID_STATE", ErrCodeInvalidState},
		{"INSUFFICIENT_STOCK", ErrCodeInsufficientStock},
		{"PAYMENT_METHOD_UNSUPPORTED", ErrCodePaymentUnsupported},
		{"CONCURRENT_MODIFICATION", ErrCodeConcurrencyConflict},
		{"INTERNAL_ERROR", ErrCodeInternal},
		{"VALIDATION_ERROR", ErrCodeValidation},
		{ErrCodeNotFound, ErrCodeNotFound},
		{"", ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

func TestEnvelopeShape(t *testing.T) {
	raw, err := json.Marshal(NewErrorResponse(ErrCodeNotFound, "Order not found", "req-1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":"ERR_NOT_FOUND","message":"Order not found","data":null,"request_id":"req-1"}`, string(raw))

	raw, err = json.Marshal(NewSuccessResponse(map[string]int{"n": 1}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":"OK","message":"success","data":{"n":1}}`, string(raw))
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	r := NewSuccessResponseWithMeta([]int{1, 2}, 41, 2, 20)
	require.NotNil(t, r.Meta)
	assert.Equal(t, 3, r.Meta.TotalPages)
	assert.Equal(t, 2, r.Meta.Page)

	r = NewSuccessResponseWithMeta(nil, 0, 0, 0)
	assert.Equal(t, DefaultPageSize, r.Meta.PageSize)
	assert.Equal(t, 0, r.Meta.TotalPages)
}

func TestNewValidationErrorResponse(t *testing.T) {
	r := NewValidationErrorResponse("Request validation failed", "", []ValidationDetail{{Field: "email", Message: "Invalid email format"}})
	assert.Equal(t, ErrCodeValidation, r.Code)
	data, ok := r.Data.(map[string]any)
	require.True(t, ok)
	assert.Len(t, data["errors"], 1)
}

func TestNormalizePage(t *testing.T) {
	p, s := NormalizePage(0, 500)
	assert.Equal(t, 1, p)
	assert.Equal(t, MaxPageSize, s)
}
