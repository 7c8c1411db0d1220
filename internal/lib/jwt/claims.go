package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/coachflow/coaching-platform/internal/apperr"
	"github.com/coachflow/coaching-platform/internal/authz"
)

// CustomClaims описывает данные, зашитые в сессионный токен.
type CustomClaims struct {
	Email                string   `json:"email"`
	Role                 string   `json:"role"`
	Permissions          []string `json:"permissions,omitempty"`
	jwt.RegisteredClaims          // Subject = uid профиля, плюс iat/exp
}

// Actor переводит claims в представление для проверки доступа.
func (c *CustomClaims) Actor() authz.Actor {
	caps := make([]authz.Capability, 0, len(c.Permissions))
	for _, p := range c.Permissions {
		if cap, err := authz.ParseCapability(p); err == nil {
			caps = append(caps, cap)
		}
	}
	return authz.Actor{
		UID:          c.Subject,
		Role:         authz.Role(c.Role),
		Capabilities: caps,
	}
}

// GenerateToken выпускает токен с uid, email, ролью и правами профиля,
// подписывая его секретным ключом. Время жизни определяется tokenTTL.
func (j *MakerImpl) GenerateToken(subjectUID, email string, role string, permissions []string) (string, error) {
	const op = "jwt.GenerateToken"
	claims := CustomClaims{
		Email:       email,
		Role:        role,
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectUID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// ParseToken проверяет подпись и срок действия токена и возвращает claims.
//
// Просроченный и подделанный токены отклоняются одинаковым сообщением:
// различие между ними наружу не выдается.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindAuthentication, "invalid or expired token", fmt.Errorf("%s: %w", op, err))
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, apperr.New(apperr.KindAuthentication, "invalid or expired token")
	}
	return claims, nil
}
