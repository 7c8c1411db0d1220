package models

import "time"

// MemberProgress — замер участника, записанный коучем.
//
// Запись неизменяема после создания; выборки упорядочены по времени
// замера по убыванию.
type MemberProgress struct {
	ID               int       `json:"id"`
	MemberUID        string    `json:"member_uid"`
	CoachUID         string    `json:"coach_uid"` // Кто записал замер; берётся из токена, не из запроса
	WeightKG         float64   `json:"weight_kg"`
	BodyFatPct       float64   `json:"body_fat_pct"`
	PerformanceScore int       `json:"performance_score"`
	RecordedAt       time.Time `json:"recorded_at"`
}
