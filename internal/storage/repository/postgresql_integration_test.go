package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachflow/coaching-platform/internal/apperr"
	"github.com/coachflow/coaching-platform/internal/authz"
	"github.com/coachflow/coaching-platform/internal/models"
)

func TestStorage_CreateProfile(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	uid, err := storage.CreateProfile(ctx, models.Profile{
		Email:        "new@example.com",
		FullName:     "New Member",
		PasswordHash: "hashedpassword",
		Role:         authz.RoleMember,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, uid)

	got, err := storage.GetProfile(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", got.Email)
	assert.Equal(t, authz.RoleMember, got.Role)

	// повторная регистрация того же email
	_, err = storage.CreateProfile(ctx, models.Profile{
		Email:        "new@example.com",
		PasswordHash: "otherhash",
		Role:         authz.RoleMember,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestStorage_UpdateProfilePartial(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	uid := factory.CreateProfile(t, "member@example.com", "member")

	bio := "люблю бег"
	count, err := storage.UpdateProfile(ctx, uid, models.ProfileUpdate{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	got, err := storage.GetProfile(ctx, uid)
	require.NoError(t, err)
	require.NotNil(t, got.Bio)
	assert.Equal(t, bio, *got.Bio)
	assert.Equal(t, "Test Profile", got.FullName, "незатронутое поле не меняется")
}

func TestStorage_ConvertLead(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	leadID := factory.CreateLead(t, "lead@example.com", string(models.LeadQualified), nil)

	profile, err := storage.ConvertLead(ctx, leadID, models.Profile{
		Email:        "lead@example.com",
		FullName:     "Converted Lead",
		PasswordHash: "hashedpassword",
		Role:         authz.RoleMember,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, profile.UID)

	lead, err := storage.GetLead(ctx, leadID)
	require.NoError(t, err)
	assert.Equal(t, models.LeadClosed, lead.Status)

	// повторная конверсия того же лида
	_, err = storage.ConvertLead(ctx, leadID, models.Profile{
		Email:        "second@example.com",
		PasswordHash: "hashedpassword",
		Role:         authz.RoleMember,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestStorage_ConvertLeadEmailTakenRollsBack(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	factory.CreateProfile(t, "taken@example.com", "member")
	leadID := factory.CreateLead(t, "taken@example.com", string(models.LeadNew), nil)

	_, err := storage.ConvertLead(ctx, leadID, models.Profile{
		Email:        "taken@example.com",
		PasswordHash: "hashedpassword",
		Role:         authz.RoleMember,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// лид остался в исходном состоянии
	lead, err := storage.GetLead(ctx, leadID)
	require.NoError(t, err)
	assert.Equal(t, models.LeadNew, lead.Status)
}

func TestStorage_ListLeadsCoachScope(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	coach1 := NewCoachUID()
	coach2 := NewCoachUID()

	factory.CreateLead(t, "own@example.com", string(models.LeadNew), &coach1)
	factory.CreateLead(t, "foreign@example.com", string(models.LeadNew), &coach2)
	factory.CreateLead(t, "unassigned@example.com", string(models.LeadNew), nil)

	// scoped выборка: свои и неназначенные
	leads, err := storage.ListLeads(ctx, coach1, 10, 0)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	emails := []string{leads[0].Email, leads[1].Email}
	assert.Contains(t, emails, "own@example.com")
	assert.Contains(t, emails, "unassigned@example.com")

	// unscoped выборка видит всё
	all, err := storage.ListLeads(ctx, "", 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStorage_AdvanceLeadAssignsCoach(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	coach1 := NewCoachUID()
	coach2 := NewCoachUID()
	leadID := factory.CreateLead(t, "lead@example.com", string(models.LeadNew), nil)

	require.NoError(t, storage.AdvanceLead(ctx, leadID, models.LeadContacted, coach1))

	lead, err := storage.GetLead(ctx, leadID)
	require.NoError(t, err)
	require.NotNil(t, lead.AssignedCoachUID)
	assert.Equal(t, coach1, *lead.AssignedCoachUID)

	// первый взявший лида коуч закреплён навсегда
	require.NoError(t, storage.AdvanceLead(ctx, leadID, models.LeadQualified, coach2))
	lead, err = storage.GetLead(ctx, leadID)
	require.NoError(t, err)
	assert.Equal(t, coach1, *lead.AssignedCoachUID)
}

func TestStorage_ApplyEntitlementIdempotent(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	factory.CreateProfile(t, "buyer@example.com", "member")

	changed, err := storage.ApplyEntitlement(ctx, "buyer@example.com", "plan_performance", "cust_7")
	require.NoError(t, err)
	assert.True(t, changed, "первое применение меняет профиль")

	changed, err = storage.ApplyEntitlement(ctx, "buyer@example.com", "plan_performance", "cust_7")
	require.NoError(t, err)
	assert.False(t, changed, "повторная доставка не меняет ни одной строки")

	// смена плана — снова реальное изменение
	changed, err = storage.ApplyEntitlement(ctx, "buyer@example.com", "plan_elite", "cust_7")
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestStorage_ApplyEntitlementUnknownEmail(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	changed, err := storage.ApplyEntitlement(context.Background(), "ghost@example.com", "plan_basic", "")
	require.NoError(t, err, "неизвестный email — не ошибка")
	assert.False(t, changed)
}

func TestStorage_ProgressRoundTrip(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	memberUID := factory.CreateProfile(t, "member@example.com", "member")
	coachUID := NewCoachUID()

	for i, w := range []float64{82.0, 81.5, 81.0} {
		_, err := storage.CreateProgress(ctx, models.MemberProgress{
			MemberUID:        memberUID,
			CoachUID:         coachUID,
			WeightKG:         w,
			BodyFatPct:       20.0,
			PerformanceScore: 50 + i,
			RecordedAt:       time.Date(2026, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}

	entries, err := storage.ListProgressForMember(ctx, memberUID, 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	// по убыванию времени замера
	assert.Equal(t, 81.0, entries[0].WeightKG)
	assert.Equal(t, 82.0, entries[2].WeightKG)
}

func TestStorage_PlansCatalog(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, storage.CreatePlan(ctx, models.TrainingPlan{
		ID: "plan_elite", Name: "Elite", Price: 19900, DurationMonths: 6,
		Features: []string{"personal coach", "nutrition plan"},
	}))
	require.NoError(t, storage.CreatePlan(ctx, models.TrainingPlan{
		ID: "plan_basic", Name: "Basic", Price: 4900, DurationMonths: 1,
	}))

	err := storage.CreatePlan(ctx, models.TrainingPlan{ID: "plan_basic", Name: "Dup", Price: 1})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	plans, err := storage.ListPlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "plan_basic", plans[0].ID, "каталог упорядочен по цене")

	got, err := storage.GetPlan(ctx, "plan_elite")
	require.NoError(t, err)
	assert.Equal(t, []string{"personal coach", "nutrition plan"}, got.Features)

	_, err = storage.GetPlan(ctx, "ghost")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
