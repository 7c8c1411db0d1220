// Package models содержит доменные структуры платформы: профили,
// лиды, замеры участников и тарифные планы.
package models

import (
	"time"

	"github.com/coachflow/coaching-platform/internal/authz"
)

// Profile представляет учётную запись с идентичностью и текущим тарифом.
//
// Email глобально уникален. Поле Permissions имеет смысл только для роли
// admin. Хэш пароля наружу не отдается (см. SafeProfile).
type Profile struct {
	UID                 string             // Уникальный идентификатор
	Email               string             // Электронная почта (уникальная)
	FullName            string             // Имя
	PasswordHash        string             // Хэш пароля
	Role                authz.Role         // super_admin, admin, nutritionist или member
	Permissions         []authz.Capability // Флаги прав, значимы только для admin
	ActivePlanID        *string            // Текущий оплаченный план
	ProcessorCustomerID *string            // Идентификатор покупателя у платёжного провайдера
	AssignedCoachUID    *string            // Коуч, закреплённый за участником
	Bio                 *string            // Свободный текст о себе
	NutritionNotes      *string            // Заметки по питанию
	CreatedAt           time.Time
}

// SafeProfile — представление профиля для ответов API, без хэша пароля.
type SafeProfile struct {
	UID                 string             `json:"uid"`
	Email               string             `json:"email"`
	FullName            string             `json:"full_name"`
	Role                authz.Role         `json:"role"`
	Permissions         []authz.Capability `json:"permissions,omitempty"`
	ActivePlanID        *string            `json:"active_plan_id,omitempty"`
	ProcessorCustomerID *string            `json:"processor_customer_id,omitempty"`
	AssignedCoachUID    *string            `json:"assigned_coach_uid,omitempty"`
	Bio                 *string            `json:"bio,omitempty"`
	NutritionNotes      *string            `json:"nutrition_notes,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
}

// Safe возвращает представление профиля без учётных данных.
func (p *Profile) Safe() SafeProfile {
	return SafeProfile{
		UID:                 p.UID,
		Email:               p.Email,
		FullName:            p.FullName,
		Role:                p.Role,
		Permissions:         p.Permissions,
		ActivePlanID:        p.ActivePlanID,
		ProcessorCustomerID: p.ProcessorCustomerID,
		AssignedCoachUID:    p.AssignedCoachUID,
		Bio:                 p.Bio,
		NutritionNotes:      p.NutritionNotes,
		CreatedAt:           p.CreatedAt,
	}
}

// Target возвращает представление профиля для проверки доступа.
func (p *Profile) Target() authz.ProfileTarget {
	coach := ""
	if p.AssignedCoachUID != nil {
		coach = *p.AssignedCoachUID
	}
	return authz.ProfileTarget{
		UID:      p.UID,
		Role:     p.Role,
		CoachUID: coach,
	}
}

// ProfileFilter — параметры стаффовой выборки профилей.
type ProfileFilter struct {
	Role     *authz.Role
	CoachUID *string
	Limit    int
	Offset   int
}

// ProfileUpdate описывает изменяемые поля профиля. nil-поле не изменяется.
type ProfileUpdate struct {
	FullName       *string
	Bio            *string
	NutritionNotes *string
	PlanID         *string
	Role           *authz.Role
	Permissions    []authz.Capability
}
