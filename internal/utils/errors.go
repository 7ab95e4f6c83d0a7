// internal/utils/errors.go
package utils

import (
	"errors"
	"net/http"

	"github.com/javajoker/bricolage-backend/internal/i18n"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindInsufficientStock
	KindAuth
	KindForbidden
	KindNotFound
	KindConflict
	KindPayment
)

func (k ErrorKind) Status() int {
	switch k {
	case KindValidation, KindInsufficientStock:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindPayment:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

func (k ErrorKind) Code() string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindInsufficientStock:
		return "INSUFFICIENT_STOCK"
	case KindAuth:
		return "UNAUTHORIZED"
	case KindForbidden:
		return "FORBIDDEN"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	case KindPayment:
		return "PAYMENT_FAILED"
	default:
		return "INTERNAL_ERROR"
	}
}

// AppError is a domain failure carrying an i18n message key.
type AppError struct {
	Kind    ErrorKind
	Key     string
	Args    []interface{}
	Details interface{}
	Err     error
}

func (e *AppError) Error() string {
	msg := i18n.T("en", e.Key, e.Args...)
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

func newAppError(kind ErrorKind, key string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Key: key, Args: args}
}

func ErrValidation(key string, args ...interface{}) *AppError {
	return newAppError(KindValidation, key, args...)
}

func ErrAuth(key string) *AppError {
	return newAppError(KindAuth, key)
}

func ErrForbidden(key string) *AppError {
	return newAppError(KindForbidden, key)
}

func ErrNotFound(key string, args ...interface{}) *AppError {
	return newAppError(KindNotFound, key, args...)
}

func ErrConflict(key string) *AppError {
	return newAppError(KindConflict, key)
}

func ErrPayment(err error) *AppError {
	return newAppError(KindPayment, i18n.KeyPaymentFailed).Wrap(err)
}

func ErrInternal(err error) *AppError {
	return newAppError(KindInternal, i18n.KeyInternalError).Wrap(err)
}

// StockShortage is the detail payload of an insufficient stock error.
type StockShortage struct {
	RefProduto string `json:"refProduto"`
	Disponivel int    `json:"quantidadeAtual"`
	Pedido     int    `json:"quantidadePedida"`
}

func ErrInsufficientStock(ref string, current, requested int) *AppError {
	return newAppError(KindInsufficientStock, i18n.KeyStockInsufficient, ref).WithDetails(StockShortage{
		RefProduto: ref,
		Disponivel: current,
		Pedido:     requested,
	})
}

// ValidationFailed turns validator errors into a validation AppError with field details.
func ValidationFailed(err error) *AppError {
	return ErrValidation(i18n.KeyValidationInvalid, "input").WithDetails(GetValidationErrors(err)).Wrap(err)
}

// KindOf reports the kind of err, KindInternal when it is not an AppError.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
