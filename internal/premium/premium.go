// Package premium describes the premium plans offered in the upgrade modal.
package premium

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PlanID identifies a plan.
type PlanID string

const (
	Monthly PlanID = "monthly"
	Yearly  PlanID = "yearly"
)

// Plan is a premium subscription plan.
type Plan struct {
	ID       PlanID
	Label    string
	Price    decimal.Decimal
	Period   string
	Months   int
	Features []string
}

var (
	monthly = &Plan{
		ID:     Monthly,
		Label:  "Monatlich",
		Price:  decimal.RequireFromString("29.99"),
		Period: "Monat",
		Months: 1,
		Features: []string{
			"Unbegrenzte Chats",
			"Premium AI-Modelle",
			"Chat-Export & Backup",
			"Prioritärer Support",
			"Erweiterte Personalisierung",
		},
	}
	yearly = &Plan{
		ID:     Yearly,
		Label:  "Jährlich",
		Price:  decimal.RequireFromString("299.99"),
		Period: "Jahr",
		Months: 12,
		Features: []string{
			"Alle monatlichen Features",
			"Erweiterte Analytics",
			"API-Zugang",
			"White-Label Optionen",
			"Dedizierter Account Manager",
		},
	}
)

// Plans returns the plans in display order.
func Plans() []*Plan { return []*Plan{monthly, yearly} }

// Get returns the plan with the given id, or nil.
func Get(id PlanID) *Plan {
	for _, plan := range Plans() {
		if plan.ID == id {
			return plan
		}
	}
	return nil
}

// FormatEuro formats an amount as "€29.99".
func FormatEuro(amount decimal.Decimal) string {
	return "€" + amount.StringFixed(2)
}

// PriceLabel returns e.g. "€29.99/Monat".
func (p *Plan) PriceLabel() string {
	return FormatEuro(p.Price) + "/" + p.Period
}

// PerMonth returns the monthly equivalent of the price, rounded down to the cent.
func (p *Plan) PerMonth() decimal.Decimal {
	return p.Price.Div(decimal.NewFromInt(int64(p.Months))).RoundDown(2)
}

// Savings returns how much the plan saves over paying monthly for the same period, in whole euros.
func (p *Plan) Savings() decimal.Decimal {
	if p.Months <= 1 {
		return decimal.Zero
	}
	return monthly.Price.Mul(decimal.NewFromInt(int64(p.Months))).Sub(p.Price).Round(0)
}

// SavingsLabel returns e.g. "60€ sparen", or "" if the plan saves nothing.
func (p *Plan) SavingsLabel() string {
	savings := p.Savings()
	if !savings.IsPositive() {
		return ""
	}
	return savings.String() + "€ sparen"
}

// CallToAction returns the label of the upgrade button.
func (p *Plan) CallToAction() string {
	return fmt.Sprintf("Premium für %s aktivieren", p.PriceLabel())
}

// Selection is the plan toggle of the modal. The zero value selects the monthly plan.
type Selection struct {
	id PlanID
}

// Plan returns the selected plan.
func (s *Selection) Plan() *Plan {
	if s.id == Yearly {
		return yearly
	}
	return monthly
}

// Select a plan. Unknown ids are ignored.
func (s *Selection) Select(id PlanID) {
	if Get(id) != nil {
		s.id = id
	}
}

// Toggle between the monthly and the yearly plan.
func (s *Selection) Toggle() {
	if s.Plan().ID == Monthly {
		s.id = Yearly
		return
	}
	s.id = Monthly
}
