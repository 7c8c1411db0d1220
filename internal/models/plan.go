package models

// TrainingPlan — тарифный план: продукт с ценой и набором фич.
// Справочные данные, изменяются редко и только персоналом с manage_plans.
type TrainingPlan struct {
	ID             string   `json:"id"`              // Например "plan_performance"
	Name           string   `json:"name"`
	Price          int      `json:"price"`           // Цена в минимальных единицах валюты
	DurationMonths int      `json:"duration_months"`
	Features       []string `json:"features"`
}
