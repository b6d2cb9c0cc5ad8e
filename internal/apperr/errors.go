package apperr

import (
	"errors"
	"fmt"
)

// Kind классифицирует ошибки доменного слоя. HTTP-слой переводит Kind в
// статус-код, сервисы никогда не возвращают "сырые" инфраструктурные ошибки.
type Kind string

const (
	KindNotAuthorized  Kind = "not_authorized"  // Не та роль или чужой ресурс
	KindAlreadyClaimed Kind = "already_claimed" // Проигранная гонка за объявление, штатный исход
	KindNotFound       Kind = "not_found"
	KindInvalidState   Kind = "invalid_state" // Переход из терминального или неподходящего статуса
	KindValidation     Kind = "validation"
	KindUnavailable    Kind = "unavailable" // Инфраструктура недоступна, можно ретраить чтение
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotAuthorized(msg string) error {
	return &Error{Kind: KindNotAuthorized, Msg: msg}
}

func AlreadyClaimed(msg string) error {
	return &Error{Kind: KindAlreadyClaimed, Msg: msg}
}

func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

func InvalidState(msg string) error {
	return &Error{Kind: KindInvalidState, Msg: msg}
}

func Validation(msg string) error {
	return &Error{Kind: KindValidation, Msg: msg}
}

// Unavailable оборачивает инфраструктурную ошибку (БД, relay)
func Unavailable(msg string, err error) error {
	return &Error{Kind: KindUnavailable, Msg: msg, Err: err}
}

// KindOf возвращает Kind ошибки или пустую строку для посторонних ошибок
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
