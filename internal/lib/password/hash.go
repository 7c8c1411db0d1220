// Package password реализует хранилище учётных данных: безопасное
// хеширование и проверку паролей через bcrypt.
//
// Пароль в открытом виде никогда не логируется и не возвращается.
// Любая ошибка хеширования трактуется вызывающим кодом как внутренняя.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/coachflow/coaching-platform/internal/apperr"
)

// Hasher хеширует и проверяет пароли с настраиваемой стоимостью bcrypt.
type Hasher struct {
	cost int
}

// NewHasher создает Hasher. При cost вне допустимого диапазона bcrypt
// используется bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash принимает пароль и возвращает его bcrypt-хэш для хранения в базе.
func (h *Hasher) Hash(plaintext string) (string, error) {
	const op = "password.Hash"
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "failed to hash password", fmt.Errorf("%s: %w", op, err))
	}
	return string(hashed), nil
}

// Compare сверяет bcrypt-хэш с введённым паролем.
//
// Возвращает nil при совпадении, иначе AuthenticationError с единым
// сообщением, не раскрывающим причину отказа.
func (h *Hasher) Compare(hash, plaintext string) error {
	const op = "password.Compare"
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)); err != nil {
		return apperr.Wrap(apperr.KindAuthentication, "invalid credentials", fmt.Errorf("%s: %w", op, err))
	}
	return nil
}
