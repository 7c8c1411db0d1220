package auth

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/coachflow/coaching-platform/internal/apperr"
	"github.com/coachflow/coaching-platform/internal/authz"
	"github.com/coachflow/coaching-platform/internal/lib/jwt"
	"github.com/coachflow/coaching-platform/internal/lib/password"
	"github.com/coachflow/coaching-platform/internal/models"
)

// MockProfileRepository реализует интерфейс ProfileRepository
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) CreateProfile(ctx context.Context, p models.Profile) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func (m *MockProfileRepository) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func newTestService(repo *MockProfileRepository) *AuthService {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewAuthService(repo, password.NewHasher(4), jwt.NewMaker("test-secret", time.Hour), logger)
}

func TestRegister(t *testing.T) {
	repo := new(MockProfileRepository)
	repo.On("CreateProfile", mock.Anything, mock.AnythingOfType("models.Profile")).
		Return("uid-1", nil)

	svc := newTestService(repo)
	safe, err := svc.Register(context.Background(), "jo@x.com", "Jo", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", safe.UID)
	assert.Equal(t, authz.RoleMember, safe.Role)

	created := repo.Calls[0].Arguments.Get(1).(models.Profile)
	assert.NotEqual(t, "secret123", created.PasswordHash, "пароль не должен храниться открытым текстом")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := new(MockProfileRepository)
	repo.On("CreateProfile", mock.Anything, mock.Anything).
		Return("", apperr.New(apperr.KindConflict, "email already registered"))

	svc := newTestService(repo)
	_, err := svc.Register(context.Background(), "taken@x.com", "Jo", "secret123")
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestLogin(t *testing.T) {
	hasher := password.NewHasher(4)
	hash, err := hasher.Hash("secret123")
	require.NoError(t, err)

	profile := &models.Profile{
		UID:          "uid-1",
		Email:        "coach@x.com",
		PasswordHash: hash,
		Role:         authz.RoleAdmin,
		Permissions:  []authz.Capability{authz.CapManageLeads},
	}

	tests := []struct {
		name      string
		email     string
		password  string
		setupMock func(*MockProfileRepository)
		wantErr   bool
	}{
		{
			name:     "успешный вход",
			email:    "coach@x.com",
			password: "secret123",
			setupMock: func(m *MockProfileRepository) {
				m.On("GetProfileByEmail", mock.Anything, "coach@x.com").Return(profile, nil)
			},
		},
		{
			name:     "неверный пароль",
			email:    "coach@x.com",
			password: "wrong",
			setupMock: func(m *MockProfileRepository) {
				m.On("GetProfileByEmail", mock.Anything, "coach@x.com").Return(profile, nil)
			},
			wantErr: true,
		},
		{
			name:     "неизвестный email",
			email:    "ghost@x.com",
			password: "secret123",
			setupMock: func(m *MockProfileRepository) {
				m.On("GetProfileByEmail", mock.Anything, "ghost@x.com").
					Return(nil, apperr.New(apperr.KindNotFound, "profile not found"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockProfileRepository)
			tt.setupMock(repo)
			svc := newTestService(repo)

			token, safe, err := svc.Login(context.Background(), tt.email, tt.password)
			if tt.wantErr {
				require.Error(t, err)
				// неверный пароль и неизвестный email дают одинаковый отказ
				assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
				assert.Equal(t, "invalid credentials", apperr.Message(err))
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, token)
			assert.Equal(t, "uid-1", safe.UID)

			claims, err := svc.ValidateToken(context.Background(), token)
			require.NoError(t, err)
			assert.Equal(t, "uid-1", claims.Subject)
			assert.True(t, claims.Actor().Allows(authz.CapManageLeads))
		})
	}
}
