// Package plans описывает каталог тарифов доступа к сигналам и правила расчёта их окончания.
package plans

import "strings"

// Currency валюта всех тарифов. Суммы хранятся в минимальных единицах (kobo).
const Currency = "NGN"

// Plan тариф доступа.
type Plan struct {
	Name     string   `json:"name"`
	Amount   int64    `json:"amount"`
	Duration string   `json:"duration"`
	Days     int      `json:"days"`
	Features []string `json:"features"`
}

var catalog = []Plan{
	{
		Name:     "2 Weeks Access",
		Amount:   3_800_000,
		Duration: "14 days",
		Days:     14,
		Features: []string{"Basic trading signals", "Email alerts"},
	},
	{
		Name:     "1 Month Access",
		Amount:   7_800_000,
		Duration: "30 days",
		Days:     30,
		Features: []string{"All signals", "Telegram group access", "Priority email support"},
	},
	{
		Name:     "2 Months Access",
		Amount:   15_600_000,
		Duration: "60 days",
		Days:     60,
		Features: []string{"All 1-month features", "Early access to premium calls", "Portfolio feedback"},
	},
	{
		Name:     "1 Year Access",
		Amount:   93_000_000,
		Duration: "365 days",
		Days:     365,
		Features: []string{
			"All 2-month features",
			"1-on-1 mentorship sessions",
			"Custom trading strategy review",
			"VIP lifetime channel access",
		},
	},
}

// Catalog возвращает копию каталога тарифов.
func Catalog() []Plan {
	out := make([]Plan, len(catalog))
	for i, p := range catalog {
		p.Features = append([]string(nil), p.Features...)
		out[i] = p
	}
	return out
}

// Find ищет тариф по названию без учёта регистра и пробелов по краям.
func Find(name string) (Plan, bool) {
	name = strings.TrimSpace(name)
	for _, p := range catalog {
		if strings.EqualFold(p.Name, name) {
			p.Features = append([]string(nil), p.Features...)
			return p, true
		}
	}
	return Plan{}, false
}
