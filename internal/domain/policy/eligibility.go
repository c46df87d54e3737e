package policy

import (
	"fmt"
	"time"
)

const (
	DefaultMinAge = 0
	DefaultMaxAge = 100
)

// Age is the calendar age at now: full years elapsed, minus one when this
// year's birthday has not happened yet.
func Age(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// AgeBounds returns the policy's age range with defaults applied.
func (p *Policy) AgeBounds() (int, int) {
	minAge, maxAge := DefaultMinAge, DefaultMaxAge
	if p.MinAge != nil {
		minAge = *p.MinAge
	}
	if p.MaxAge != nil {
		maxAge = *p.MaxAge
	}
	return minAge, maxAge
}

// Eligible reports whether age falls inside the inclusive range.
func (p *Policy) Eligible(age int) bool {
	minAge, maxAge := p.AgeBounds()
	return minAge <= age && age <= maxAge
}

// IneligibleReason explains why age is outside the range.
func (p *Policy) IneligibleReason(age int) string {
	minAge, maxAge := p.AgeBounds()
	return fmt.Sprintf("(Customer: %d) not in required range (%d-%d)", age, minAge, maxAge)
}

// Ineligible is a policy the customer can see but not select.
type Ineligible struct {
	Policy Policy `json:"policy"`
	Reason string `json:"reason"`
}

// Partition splits policies by eligibility at age, keeping input order.
func Partition(policies []Policy, age int) ([]Policy, []Ineligible) {
	eligible := make([]Policy, 0, len(policies))
	ineligible := make([]Ineligible, 0)
	for _, p := range policies {
		if p.Eligible(age) {
			eligible = append(eligible, p)
			continue
		}
		ineligible = append(ineligible, Ineligible{Policy: p, Reason: p.IneligibleReason(age)})
	}
	return eligible, ineligible
}
