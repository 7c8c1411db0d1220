// Package apperr определяет закрытую таксономию ошибок бизнес-уровня.
//
// Ожидаемые отказы (конфликт уникальности, неверные учётные данные,
// недостаточно прав) возвращаются как значения Error с конкретным Kind,
// а не пробрасываются как нетипизированные ошибки. Обработчики HTTP
// переводят Kind в статус-код в одной точке (response.Fail).
package apperr

import (
	"errors"
	"fmt"
)

// Kind — класс ошибки. Набор закрыт и не расширяется динамически.
type Kind int

const (
	// KindInternal — сбой хранилища или хеширования, не вызванный входными данными.
	KindInternal Kind = iota
	// KindAuthentication — отсутствующий, просроченный или подделанный токен, неверные учётные данные.
	KindAuthentication
	// KindAuthorization — аутентифицирован, но не хватает роли, права или coach-scope.
	KindAuthorization
	// KindValidation — некорректные входные данные, например непоследовательный переход лида.
	KindValidation
	// KindConflict — нарушение уникальности или повторная конверсия лида.
	KindConflict
	// KindNotFound — неизвестный план, профиль или лид.
	KindNotFound
	// KindUpstreamPayment — платёжный провайдер недоступен или неверно сконфигурирован.
	KindUpstreamPayment
)

// Error несёт класс ошибки, сообщение для клиента и исходную причину.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New создает ошибку указанного класса с сообщением для клиента.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap оборачивает причину err в ошибку указанного класса.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf возвращает класс ошибки. Любая ошибка вне таксономии считается внутренней.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message возвращает сообщение для клиента. Для внутренних ошибок текст
// причины не раскрывается.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Msg
	}
	return "internal error"
}

// Is сообщает, относится ли err к классу kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
