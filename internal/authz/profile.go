package authz

import "github.com/coachflow/coaching-platform/internal/apperr"

// ProfileTarget описывает запись профиля, над которой запрошена операция.
type ProfileTarget struct {
	UID      string
	Role     Role
	CoachUID string
}

// ProfilePatch перечисляет поля профиля, затронутые запросом на изменение.
// nil-поле означает «не трогаем».
type ProfilePatch struct {
	FullName       *string
	Bio            *string
	NutritionNotes *string
	PlanID         *string
	Role           *Role
	Capabilities   []Capability
}

func (p ProfilePatch) touchesPrivileges() bool {
	return p.Role != nil || p.Capabilities != nil
}

// AuthorizeProfilePatch решает, вправе ли актор применить patch к target.
//
// Правила:
//   - member изменяет только собственные свободные поля (bio, питание, имя);
//   - nutritionist изменяет только поля питания, любого профиля;
//   - admin действует в пределах своего coach-scope; роль и права он меняет
//     лишь при наличии manage_admins и никогда не назначает и не снимает
//     super_admin, а план — при наличии manage_plans;
//   - снять роль super_admin может только другой super_admin.
func (a Actor) AuthorizeProfilePatch(target ProfileTarget, p ProfilePatch) error {
	denied := apperr.New(apperr.KindAuthorization, "insufficient permissions")

	if p.touchesPrivileges() {
		touchesSuperAdmin := target.Role == RoleSuperAdmin ||
			(p.Role != nil && *p.Role == RoleSuperAdmin)
		if touchesSuperAdmin && a.Role != RoleSuperAdmin {
			return denied
		}
		switch a.Role {
		case RoleSuperAdmin:
		case RoleAdmin:
			if !a.Allows(CapManageAdmins) || !a.InScope(target.CoachUID) {
				return denied
			}
		default:
			return denied
		}
	}

	if p.PlanID != nil {
		if err := a.RequireCapability(CapManagePlans, target.CoachUID); err != nil {
			return err
		}
	}

	if p.NutritionNotes != nil {
		switch {
		case a.UID == target.UID:
		case a.Role == RoleSuperAdmin || a.Role == RoleNutritionist:
		case a.Role == RoleAdmin && a.Allows(CapManageNutrition) && a.InScope(target.CoachUID):
		default:
			return denied
		}
	}

	if p.Bio != nil || p.FullName != nil {
		switch {
		case a.UID == target.UID:
		case a.Role == RoleSuperAdmin:
		case a.Role == RoleAdmin && a.InScope(target.CoachUID):
		default:
			return denied
		}
	}

	return nil
}

// CanListProfiles сообщает, доступны ли актору стаффовые выборки профилей.
func (a Actor) CanListProfiles() bool {
	return a.Role.IsStaff()
}

// CanReadProfile решает, доступен ли актору чужой профиль на чтение.
func (a Actor) CanReadProfile(target ProfileTarget) bool {
	if a.UID == target.UID {
		return true
	}
	if !a.Role.IsStaff() {
		return false
	}
	return a.InScope(target.CoachUID)
}
