package progress

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

// MockProgressRepository реализует интерфейс ProgressRepository
type MockProgressRepository struct {
	mock.Mock
}

func (m *MockProgressRepository) CreateProgress(ctx context.Context, p models.MemberProgress) (int, error) {
	args := m.Called(ctx, p)
	return args.Int(0), args.Error(1)
}

func (m *MockProgressRepository) ListProgressForMember(ctx context.Context, memberUID string, limit, offset int) ([]*models.MemberProgress, error) {
	args := m.Called(ctx, memberUID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MemberProgress), args.Error(1)
}

// MockProfileReader реализует интерфейс ProfileReader
type MockProfileReader struct {
	mock.Mock
}

func (m *MockProfileReader) GetProfile(ctx context.Context, uid string) (*models.Profile, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func newTestService(repo *MockProgressRepository, profiles *MockProfileReader) *ProgressService {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewProgressService(repo, profiles, logger)
}

func coachActor(uid string) authz.Actor {
	return authz.Actor{
		UID:          uid,
		Role:         authz.RoleAdmin,
		Capabilities: []authz.Capability{authz.CapManageProgress},
	}
}

func strPtr(s string) *string { return &s }

func TestRecord(t *testing.T) {
	profiles := new(MockProfileReader)
	profiles.On("GetProfile", mock.Anything, "uid-m").
		Return(&models.Profile{UID: "uid-m", Role: authz.RoleMember, AssignedCoachUID: strPtr("coach-1")}, nil)

	repo := new(MockProgressRepository)
	repo.On("CreateProgress", mock.Anything, mock.AnythingOfType("models.MemberProgress")).Return(42, nil)

	svc := newTestService(repo, profiles)
	id, err := svc.Record(context.Background(), coachActor("coach-1"), RecordRequest{
		MemberUID: "uid-m",
		WeightKG:  81.5,
	})
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	created := repo.Calls[0].Arguments.Get(1).(models.MemberProgress)
	assert.Equal(t, "coach-1", created.CoachUID, "коуч берётся из токена, не из запроса")
	assert.False(t, created.RecordedAt.IsZero())
}

func TestRecordForStaffProfile(t *testing.T) {
	profiles := new(MockProfileReader)
	profiles.On("GetProfile", mock.Anything, "uid-a").
		Return(&models.Profile{UID: "uid-a", Role: authz.RoleAdmin}, nil)

	svc := newTestService(new(MockProgressRepository), profiles)
	_, err := svc.Record(context.Background(), coachActor("coach-1"), RecordRequest{MemberUID: "uid-a"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestRecordOutOfScope(t *testing.T) {
	profiles := new(MockProfileReader)
	profiles.On("GetProfile", mock.Anything, "uid-m").
		Return(&models.Profile{UID: "uid-m", Role: authz.RoleMember, AssignedCoachUID: strPtr("coach-9")}, nil)

	repo := new(MockProgressRepository)
	svc := newTestService(repo, profiles)
	_, err := svc.Record(context.Background(), coachActor("coach-1"), RecordRequest{MemberUID: "uid-m"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
	repo.AssertNotCalled(t, "CreateProgress", mock.Anything, mock.Anything)
}

func TestRecordWithoutCapability(t *testing.T) {
	profiles := new(MockProfileReader)
	profiles.On("GetProfile", mock.Anything, "uid-m").
		Return(&models.Profile{UID: "uid-m", Role: authz.RoleMember}, nil)

	svc := newTestService(new(MockProgressRepository), profiles)
	actor := authz.Actor{UID: "coach-1", Role: authz.RoleAdmin} // без manage_progress
	_, err := svc.Record(context.Background(), actor, RecordRequest{MemberUID: "uid-m"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
}

func TestListForMemberSelf(t *testing.T) {
	repo := new(MockProgressRepository)
	repo.On("ListProgressForMember", mock.Anything, "uid-m", 20, 0).
		Return([]*models.MemberProgress{{ID: 1}}, nil)

	profiles := new(MockProfileReader)
	svc := newTestService(repo, profiles)
	out, err := svc.ListForMember(context.Background(),
		authz.Actor{UID: "uid-m", Role: authz.RoleMember}, "uid-m", 20, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	// свою историю участник читает без обращения к профилю
	profiles.AssertNotCalled(t, "GetProfile", mock.Anything, mock.Anything)
}

func TestListForMemberForeignDenied(t *testing.T) {
	profiles := new(MockProfileReader)
	profiles.On("GetProfile", mock.Anything, "uid-m").
		Return(&models.Profile{UID: "uid-m", Role: authz.RoleMember}, nil)

	svc := newTestService(new(MockProgressRepository), profiles)
	_, err := svc.ListForMember(context.Background(),
		authz.Actor{UID: "uid-other", Role: authz.RoleMember}, "uid-m", 20, 0)
	require.Error(t, err)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
}

func TestListForMemberByCoach(t *testing.T) {
	profiles := new(MockProfileReader)
	profiles.On("GetProfile", mock.Anything, "uid-m").
		Return(&models.Profile{UID: "uid-m", Role: authz.RoleMember, AssignedCoachUID: strPtr("coach-1")}, nil)

	repo := new(MockProgressRepository)
	repo.On("ListProgressForMember", mock.Anything, "uid-m", 20, 0).
		Return([]*models.MemberProgress{}, nil)

	svc := newTestService(repo, profiles)
	_, err := svc.ListForMember(context.Background(), coachActor("coach-1"), "uid-m", 20, 0)
	require.NoError(t, err)
}
