package models

import (
	"time"

	"github.com/coachflow/coaching-platform/internal/apperr"
)

// LeadStatus — состояние лида. Переходы только вперёд, Closed терминален.
type LeadStatus string

const (
	// LeadNew — только что захваченный лид.
	LeadNew LeadStatus = "New"
	// LeadContacted — с лидом связались.
	LeadContacted LeadStatus = "Contacted"
	// LeadQualified — лид признан перспективным.
	LeadQualified LeadStatus = "Qualified"
	// LeadClosed — терминальное состояние, достигается только конверсией в профиль.
	LeadClosed LeadStatus = "Closed"
)

// leadOrder задает строгий порядок состояний.
var leadOrder = map[LeadStatus]int{
	LeadNew:       1,
	LeadContacted: 2,
	LeadQualified: 3,
	LeadClosed:    4,
}

// ParseLeadStatus проверяет, что строка является известным состоянием лида.
func ParseLeadStatus(s string) (LeadStatus, error) {
	if _, ok := leadOrder[LeadStatus(s)]; !ok {
		return "", apperr.New(apperr.KindValidation, "unknown lead status: "+s)
	}
	return LeadStatus(s), nil
}

// CanAdvanceTo сообщает, является ли next строгим продвижением вперёд.
func (s LeadStatus) CanAdvanceTo(next LeadStatus) bool {
	return leadOrder[next] > leadOrder[s]
}

// Terminal сообщает, достигнуто ли терминальное состояние.
func (s LeadStatus) Terminal() bool {
	return s == LeadClosed
}

// LeadSource — канал, через который лид попал в систему.
type LeadSource string

const (
	// SourceCTAButton — кнопка призыва к действию на сайте.
	SourceCTAButton LeadSource = "CTA_Button"
	// SourceContactForm — контактная форма.
	SourceContactForm LeadSource = "Contact_Form"
	// SourceAIChat — чат-виджет.
	SourceAIChat LeadSource = "AI_Chat"
)

// ParseLeadSource проверяет, что строка является известным каналом.
func ParseLeadSource(s string) (LeadSource, error) {
	switch LeadSource(s) {
	case SourceCTAButton, SourceContactForm, SourceAIChat:
		return LeadSource(s), nil
	}
	return "", apperr.New(apperr.KindValidation, "unknown lead source: "+s)
}

// Lead — карточка потенциального клиента.
//
// Email уникален среди лидов: повторный захват того же адреса отклоняется
// независимо от того, существует ли профиль. Запись не удаляется; после
// конверсии остаётся в истории со статусом Closed.
type Lead struct {
	ID               int        `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone"`
	Goal             string     `json:"goal"`
	Source           LeadSource `json:"source"`
	Status           LeadStatus `json:"status"`
	AssignedCoachUID *string    `json:"assigned_coach_uid,omitempty"` // Пусто, пока лида не взял в работу конкретный коуч
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// CoachUID возвращает коуча лида или пустую строку, если лид не назначен.
// Неназначенный лид считается попадающим в любой coach-scope.
func (l *Lead) CoachUID() string {
	if l.AssignedCoachUID == nil {
		return ""
	}
	return *l.AssignedCoachUID
}
