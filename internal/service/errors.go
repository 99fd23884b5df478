package service

import (
	"errors"
	"fmt"

	"github.com/mmeshcher/keystore/internal/repository"
)

var (
	// ErrUnauthorized возвращается при неверных учётных данных, токене или заблокированной учётной записи.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden возвращается, если у пользователя нет прав на операцию.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidTransition возвращается при недопустимой смене статуса заказа.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrInsufficientStock возвращается, если остатка товара не хватает для заказа.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrUnavailable возвращается для снятого с продажи товара.
	ErrUnavailable = errors.New("product unavailable")
	// ErrInvalidReference возвращается, если товар не входит в заказ.
	ErrInvalidReference = errors.New("invalid product reference")
	// ErrSelfDelete возвращается при попытке администратора удалить свою учётную запись.
	ErrSelfDelete = errors.New("self delete")
)

// Error связывает категорию ошибки с сообщением для клиента.
// Категория проверяется через errors.Is.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func fail(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// notFoundAs заменяет ErrNotFound хранилища сообщением msg, остальные ошибки оборачивает.
func notFoundAs(err error, msg, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fail(repository.ErrNotFound, "%s", msg)
	}
	return fmt.Errorf("%s: %w", op, err)
}
