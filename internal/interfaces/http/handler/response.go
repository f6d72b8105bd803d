package handler

import "github.com/boxflow/backend/internal/interfaces/http/dto"

// APIResponse is the generic success envelope, used by swagger annotations
type APIResponse[T any] struct {
	Success bool      `json:"success" example:"true"`
	Data    T         `json:"data,omitempty"`
	Meta    *dto.Meta `json:"meta,omitempty"`
}

// ErrorResponse is the error envelope, used by swagger annotations
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}
