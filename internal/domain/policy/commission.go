package policy

import (
	"strconv"
)

type CommissionType string

const (
	CommissionPercentage CommissionType = "PERCENTAGE"
	CommissionFlat       CommissionType = "FLAT"
)

// Commission is a company or admin cut on a third-party policy.
type Commission struct {
	Value float64        `json:"value"`
	Type  CommissionType `json:"type"`
}

// Display renders "12.5%" for percentages and "$250" for flat amounts.
func (c Commission) Display() string {
	v := strconv.FormatFloat(c.Value, 'f', -1, 64)
	if c.Type == CommissionFlat {
		return "$" + v
	}
	return v + "%"
}

// AgentEarning is premium * percent / 100.
func AgentEarning(premium, agentCommissionPercent float64) float64 {
	return premium * agentCommissionPercent / 100
}

// AgentEarning applies the policy's agent commission to its premium.
func (p *Policy) AgentEarning() float64 {
	return AgentEarning(p.PremiumAmount, p.AgentCommissionPercent)
}
