// Package authz реализует единую точку принятия решений о доступе.
//
// Роли и способности заданы закрытыми перечислениями; все проверки — чистые
// функции от (актор, запрошенная операция, владелец/коуч целевой записи).
// Никакой другой пакет не сравнивает строки ролей самостоятельно.
package authz

import (
	"fmt"

	"github.com/coachflow/coaching-platform/internal/apperr"
)

// Role — роль учётной записи.
type Role string

const (
	// RoleSuperAdmin удовлетворяет любой политике безусловно.
	RoleSuperAdmin Role = "super_admin"
	// RoleAdmin удовлетворяет политике только при наличии соответствующей способности,
	// и только в пределах собственного coach-scope.
	RoleAdmin Role = "admin"
	// RoleNutritionist имеет фиксированный узкий набор прав: чтение профилей
	// и работа с полями питания, независимо от флагов.
	RoleNutritionist Role = "nutritionist"
	// RoleMember авторизован только на операции со своими данными.
	RoleMember Role = "member"
)

// ParseRole проверяет, что строка является известной ролью.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleSuperAdmin, RoleAdmin, RoleNutritionist, RoleMember:
		return Role(s), nil
	}
	return "", apperr.New(apperr.KindValidation, fmt.Sprintf("unknown role: %s", s))
}

// IsStaff сообщает, относится ли роль к персоналу консоли.
func (r Role) IsStaff() bool {
	return r == RoleSuperAdmin || r == RoleAdmin || r == RoleNutritionist
}

// Capability — именованное право, выдаваемое учётной записи с ролью admin.
type Capability string

const (
	// CapManageLeads — работа с лидами: продвижение статуса и конверсия.
	CapManageLeads Capability = "manage_leads"
	// CapManageProgress — запись и просмотр замеров участников.
	CapManageProgress Capability = "manage_progress"
	// CapManageAdmins — изменение ролей и прав не-супер-админских учёток.
	CapManageAdmins Capability = "manage_admins"
	// CapManagePlans — управление каталогом тарифов и планом профиля.
	CapManagePlans Capability = "manage_plans"
	// CapManageNutrition — изменение полей питания чужих профилей.
	CapManageNutrition Capability = "manage_nutrition"
)

// AllCapabilities перечисляет полный набор способностей.
var AllCapabilities = []Capability{
	CapManageLeads,
	CapManageProgress,
	CapManageAdmins,
	CapManagePlans,
	CapManageNutrition,
}

// ParseCapability проверяет, что строка является известной способностью.
func ParseCapability(s string) (Capability, error) {
	for _, c := range AllCapabilities {
		if Capability(s) == c {
			return c, nil
		}
	}
	return "", apperr.New(apperr.KindValidation, fmt.Sprintf("unknown capability: %s", s))
}

// Actor — представление вызывающей стороны, извлечённое из claims токена.
type Actor struct {
	UID          string
	Role         Role
	Capabilities []Capability
}

// Allows решает, удовлетворяет ли актор политике cap.
//
// super_admin — всегда; admin — только при наличии флага; nutritionist —
// только фиксированный набор (питание); member — никогда.
func (a Actor) Allows(cap Capability) bool {
	switch a.Role {
	case RoleSuperAdmin:
		return true
	case RoleAdmin:
		for _, c := range a.Capabilities {
			if c == cap {
				return true
			}
		}
		return false
	case RoleNutritionist:
		return cap == CapManageNutrition
	default:
		return false
	}
}

// CoachScope возвращает coach id, которым ограничены выборки и записи актора.
//
// admin ограничен записями своего coach id; super_admin и nutritionist
// видят всё (scoped == false); member до стаффовых выборок не допускается.
func (a Actor) CoachScope() (string, bool) {
	if a.Role == RoleAdmin {
		return a.UID, true
	}
	return "", false
}

// InScope сообщает, попадает ли запись с коучем recordCoachUID в scope актора.
// Запись без назначенного коуча считается доступной любому стаффу.
func (a Actor) InScope(recordCoachUID string) bool {
	scope, scoped := a.CoachScope()
	if !scoped || recordCoachUID == "" {
		return true
	}
	return recordCoachUID == scope
}

// RequireCapability возвращает AuthorizationError, если актор не удовлетворяет
// политике cap или запись вне его coach-scope.
func (a Actor) RequireCapability(cap Capability, recordCoachUID string) error {
	if !a.Allows(cap) {
		return apperr.New(apperr.KindAuthorization, "insufficient permissions")
	}
	if !a.InScope(recordCoachUID) {
		return apperr.New(apperr.KindAuthorization, "record is outside your coach scope")
	}
	return nil
}
