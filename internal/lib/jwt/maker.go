// Package jwt реализует выпуск и проверку сессионных токенов.
//
// Токены stateless: подписаны HS256, ограничены по времени и несут
// идентичность, роль и набор прав вызывающей стороны. Серверного списка
// отзыва нет — logout сводится к удалению токена на клиенте.
package jwt

import (
	"time"
)

// Maker описывает интерфейс выпуска и проверки сессионных токенов.
type Maker interface {
	// GenerateToken выпускает подписанный токен с claims профиля.
	GenerateToken(subjectUID, email string, role string, permissions []string) (string, error)
	// ParseToken проверяет подпись и срок действия и возвращает claims.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует Maker на секретном ключе и времени жизни токена.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
}

// NewMaker создаёт MakerImpl на основе секретного ключа и TTL.
func NewMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
