package domain

import "fmt"

// AppError is the base domain error type.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Standard domain error constructors.

func ErrUserNotFound(id string) *AppError {
	return &AppError{Code: "USER_NOT_FOUND", Message: fmt.Sprintf("user %s not found", id), Status: 404}
}

func ErrAccountBlocked() *AppError {
	return &AppError{Code: "ACCOUNT_BLOCKED", Message: "account is blocked", Status: 403}
}

func ErrInsufficientFunds(balance, required int64) *AppError {
	return &AppError{
		Code:    "INSUFFICIENT_FUNDS",
		Message: fmt.Sprintf("balance %d is less than required %d", balance, required),
		Status:  400,
	}
}

func ErrSlotNotFound(id string) *AppError {
	return &AppError{Code: "SLOT_NOT_FOUND", Message: fmt.Sprintf("slot %s not found", id), Status: 404}
}

// ErrInsufficientStock carries the actual available count so the client can
// render "Only N codes available".
func ErrInsufficientStock(available int64) *AppError {
	return &AppError{
		Code:    "INSUFFICIENT_STOCK",
		Message: fmt.Sprintf("only %d codes available", available),
		Status:  409,
	}
}

// ErrAllocationRace signals that a concurrent purchase claimed some of the
// selected units between the stock check and the claim. The whole settlement
// rolls back.
func ErrAllocationRace() *AppError {
	return &AppError{Code: "ALLOCATION_RACE", Message: "inventory was claimed concurrently, try again", Status: 409}
}

func ErrTransactionNotFound(orderID string) *AppError {
	return &AppError{Code: "TRANSACTION_NOT_FOUND", Message: fmt.Sprintf("transaction %s not found", orderID), Status: 404}
}

func ErrGatewayRejected(msg string) *AppError {
	if msg == "" {
		msg = "payment gateway rejected the order"
	}
	return &AppError{Code: "GATEWAY_REJECTED", Message: msg, Status: 502}
}

func ErrGatewayUnavailable(cause error) *AppError {
	return &AppError{Code: "GATEWAY_UNAVAILABLE", Message: "payment gateway unavailable", Status: 502, Cause: cause}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: "VALIDATION_ERROR", Message: msg, Status: 400}
}

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: fmt.Sprintf("%s %s not found", entity, id), Status: 404}
}

func ErrConflict(msg string) *AppError {
	return &AppError{Code: "CONFLICT", Message: msg, Status: 409}
}

func ErrUnauthorized(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: msg, Status: 401}
}

func ErrForbidden(msg string) *AppError {
	return &AppError{Code: "FORBIDDEN", Message: msg, Status: 403}
}

func ErrRateLimited(msg string) *AppError {
	return &AppError{Code: "RATE_LIMITED", Message: msg, Status: 429}
}

func ErrConfig(msg string) *AppError {
	return &AppError{Code: "CONFIG_ERROR", Message: msg, Status: 500}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Message: msg, Status: 500, Cause: cause}
}
