package profile

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/coachflow/coaching-platform/internal/apperr"
	"github.com/coachflow/coaching-platform/internal/authz"
	"github.com/coachflow/coaching-platform/internal/models"
)

// MockProfileRepository реализует интерфейс ProfileRepository
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) GetProfile(ctx context.Context, uid string) (*models.Profile, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileRepository) ListProfiles(ctx context.Context, filter models.ProfileFilter) ([]*models.Profile, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Profile), args.Error(1)
}

func (m *MockProfileRepository) UpdateProfile(ctx context.Context, uid string, upd models.ProfileUpdate) (int64, error) {
	args := m.Called(ctx, uid, upd)
	return args.Get(0).(int64), args.Error(1)
}

func newTestService(repo *MockProfileRepository) *ProfileService {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewProfileService(repo, logger)
}

func strPtr(s string) *string { return &s }

func TestMe(t *testing.T) {
	repo := new(MockProfileRepository)
	repo.On("GetProfile", mock.Anything, "uid-1").
		Return(&models.Profile{UID: "uid-1", Email: "me@x.com", PasswordHash: "hash"}, nil)

	svc := newTestService(repo)
	safe, err := svc.Me(context.Background(), authz.Actor{UID: "uid-1", Role: authz.RoleMember})
	require.NoError(t, err)
	assert.Equal(t, "me@x.com", safe.Email)
}

func TestListDeniedForMember(t *testing.T) {
	svc := newTestService(new(MockProfileRepository))
	_, err := svc.List(context.Background(), authz.Actor{UID: "m1", Role: authz.RoleMember}, models.ProfileFilter{})
	require.Error(t, err)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
}

func TestListAdminForcedToOwnScope(t *testing.T) {
	repo := new(MockProfileRepository)
	repo.On("ListProfiles", mock.Anything, mock.MatchedBy(func(f models.ProfileFilter) bool {
		return f.CoachUID != nil && *f.CoachUID == "coach-1"
	})).Return([]*models.Profile{}, nil)

	svc := newTestService(repo)
	// admin просит чужой scope, но выборка всё равно сужается до его собственного
	_, err := svc.List(context.Background(),
		authz.Actor{UID: "coach-1", Role: authz.RoleAdmin},
		models.ProfileFilter{CoachUID: strPtr("coach-2")})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestListSuperAdminUnscoped(t *testing.T) {
	repo := new(MockProfileRepository)
	repo.On("ListProfiles", mock.Anything, mock.MatchedBy(func(f models.ProfileFilter) bool {
		return f.CoachUID == nil
	})).Return([]*models.Profile{{UID: "a", PasswordHash: "h"}}, nil)

	svc := newTestService(repo)
	out, err := svc.List(context.Background(),
		authz.Actor{UID: "root", Role: authz.RoleSuperAdmin}, models.ProfileFilter{})
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestGetOutOfScope(t *testing.T) {
	repo := new(MockProfileRepository)
	repo.On("GetProfile", mock.Anything, "uid-2").
		Return(&models.Profile{UID: "uid-2", Role: authz.RoleMember, AssignedCoachUID: strPtr("coach-9")}, nil)

	svc := newTestService(repo)
	_, err := svc.Get(context.Background(), authz.Actor{UID: "coach-1", Role: authz.RoleAdmin}, "uid-2")
	require.Error(t, err)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
}

func TestUpdate(t *testing.T) {
	member := &models.Profile{UID: "uid-1", Role: authz.RoleMember, AssignedCoachUID: strPtr("coach-1")}
	superTarget := &models.Profile{UID: "uid-root", Role: authz.RoleSuperAdmin}
	adminRole := authz.RoleAdmin

	tests := []struct {
		name     string
		actor    authz.Actor
		target   *models.Profile
		upd      models.ProfileUpdate
		wantKind apperr.Kind
		wantOK   bool
	}{
		{
			name:   "участник правит свой bio",
			actor:  authz.Actor{UID: "uid-1", Role: authz.RoleMember},
			target: member,
			upd:    models.ProfileUpdate{Bio: strPtr("люблю бег")},
			wantOK: true,
		},
		{
			name:     "участник не поднимает себе роль",
			actor:    authz.Actor{UID: "uid-1", Role: authz.RoleMember},
			target:   member,
			upd:      models.ProfileUpdate{Role: &adminRole},
			wantKind: apperr.KindAuthorization,
		},
		{
			name: "admin с manage_admins меняет права в своём scope",
			actor: authz.Actor{UID: "coach-1", Role: authz.RoleAdmin,
				Capabilities: []authz.Capability{authz.CapManageAdmins}},
			target: member,
			upd:    models.ProfileUpdate{Permissions: []authz.Capability{authz.CapManageLeads}},
			wantOK: true,
		},
		{
			name: "admin не трогает super_admin",
			actor: authz.Actor{UID: "coach-1", Role: authz.RoleAdmin,
				Capabilities: []authz.Capability{authz.CapManageAdmins}},
			target:   superTarget,
			upd:      models.ProfileUpdate{Role: &adminRole},
			wantKind: apperr.KindAuthorization,
		},
		{
			name:   "nutritionist правит питание любого профиля",
			actor:  authz.Actor{UID: "nut-1", Role: authz.RoleNutritionist},
			target: member,
			upd:    models.ProfileUpdate{NutritionNotes: strPtr("меньше сахара")},
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockProfileRepository)
			repo.On("GetProfile", mock.Anything, tt.target.UID).Return(tt.target, nil)
			repo.On("UpdateProfile", mock.Anything, tt.target.UID, tt.upd).Return(int64(1), nil)

			svc := newTestService(repo)
			_, err := svc.Update(context.Background(), tt.actor, tt.target.UID, tt.upd)
			if tt.wantOK {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, apperr.KindOf(err))
			repo.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestUpdateVanishedProfile(t *testing.T) {
	repo := new(MockProfileRepository)
	repo.On("GetProfile", mock.Anything, "uid-1").
		Return(&models.Profile{UID: "uid-1", Role: authz.RoleMember}, nil)
	repo.On("UpdateProfile", mock.Anything, "uid-1", mock.Anything).Return(int64(0), nil)

	svc := newTestService(repo)
	_, err := svc.Update(context.Background(),
		authz.Actor{UID: "uid-1", Role: authz.RoleMember}, "uid-1",
		models.ProfileUpdate{Bio: strPtr("x")})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
