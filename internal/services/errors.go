// server/internal/services/errors.go
package services

import "errors"

// Phân loại lỗi của tầng nghiệp vụ. Handler map các sentinel này sang HTTP
// status; lỗi sở hữu được báo là NotFound (không để lộ sự tồn tại đơn của
// người khác), riêng kẻ thua cuộc đua gán thầu nhận Forbidden/AlreadyAssigned.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrForbidden        = errors.New("forbidden")
	ErrAlreadyAssigned  = errors.New("order already assigned")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrValidation       = errors.New("validation failed")
)
