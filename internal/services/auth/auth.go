// Package auth содержит бизнес-логику регистрации, входа и проверки сессий.
package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/coachflow/coaching-platform/internal/apperr"
	"github.com/coachflow/coaching-platform/internal/authz"
	"github.com/coachflow/coaching-platform/internal/lib/jwt"
	"github.com/coachflow/coaching-platform/internal/lib/password"
	"github.com/coachflow/coaching-platform/internal/models"
)

// ProfileRepository описывает контракт хранилища профилей для аутентификации.
type ProfileRepository interface {
	// CreateProfile сохраняет новый профиль и возвращает его UID.
	CreateProfile(ctx context.Context, p models.Profile) (string, error)

	// GetProfileByEmail возвращает профиль по email или NotFoundError.
	GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
}

// AuthService отвечает за регистрацию, вход и валидацию сессионных токенов.
type AuthService struct {
	profiles ProfileRepository
	hasher   *password.Hasher
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(profiles ProfileRepository, hasher *password.Hasher, jwtMaker jwt.Maker, log *slog.Logger) *AuthService {
	return &AuthService{
		profiles: profiles,
		hasher:   hasher,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// Register создает профиль участника с хэшированным паролем.
// Дубликат email поднимается из хранилища как ConflictError: на регистрации
// сообщение "email already registered" — допустимая утечка на уровне продукта.
func (s *AuthService) Register(ctx context.Context, email, fullName, rawPassword string) (*models.SafeProfile, error) {
	const op = "auth.Register"

	hashed, err := s.hasher.Hash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	profile := models.Profile{
		Email:        email,
		FullName:     fullName,
		PasswordHash: hashed,
		Role:         authz.RoleMember,
	}
	uid, err := s.profiles.CreateProfile(ctx, profile)
	if err != nil {
		return nil, err
	}

	s.log.Info("profile registered", slog.String("uid", uid))
	profile.UID = uid
	safe := profile.Safe()
	return &safe, nil
}

// Login проверяет учётные данные и выпускает сессионный токен.
//
// Неизвестный email и неверный пароль дают один и тот же отказ:
// существует профиль или нет — по ответу логина определить нельзя.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (string, *models.SafeProfile, error) {
	invalid := apperr.New(apperr.KindAuthentication, "invalid credentials")

	profile, err := s.profiles.GetProfileByEmail(ctx, email)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return "", nil, invalid
		}
		return "", nil, err
	}
	if err := s.hasher.Compare(profile.PasswordHash, rawPassword); err != nil {
		return "", nil, invalid
	}

	token, err := s.jwtMaker.GenerateToken(profile.UID, profile.Email, string(profile.Role), capabilityStrings(profile.Permissions))
	if err != nil {
		return "", nil, err
	}
	safe := profile.Safe()
	return token, &safe, nil
}

// ValidateToken проверяет токен и возвращает его claims.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*jwt.CustomClaims, error) {
	return s.jwtMaker.ParseToken(token)
}

func capabilityStrings(caps []authz.Capability) []string {
	if len(caps) == 0 {
		return nil
	}
	out := make([]string, len(caps))
	for i, c := range caps {
		out[i] = string(c)
	}
	return out
}
