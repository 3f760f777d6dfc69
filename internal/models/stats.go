package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// DashboardStats holds the aggregate counters served by the backend. Fields
// not known here are preserved in Extra.
type DashboardStats struct {
	TotalOrders   int                        `json:"total_orders"`
	PendingOrders int                        `json:"pending_orders"`
	TodayOrders   int                        `json:"today_orders"`
	TotalRevenue  decimal.Decimal            `json:"total_revenue"`
	Extra         map[string]json.RawMessage `json:"-"`
}

var knownStatsFields = map[string]bool{
	"total_orders":   true,
	"pending_orders": true,
	"today_orders":   true,
	"total_revenue":  true,
}

// UnmarshalJSON decodes the known counters and keeps the rest verbatim
func (s *DashboardStats) UnmarshalJSON(data []byte) error {
	type plain DashboardStats

	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	for k, v := range raw {
		if knownStatsFields[k] {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]json.RawMessage)
		}
		p.Extra[k] = v
	}

	*s = DashboardStats(p)
	return nil
}

// MarshalJSON writes the known counters followed by the preserved extras
func (s DashboardStats) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(s.Extra)+4)

	for k, v := range s.Extra {
		out[k] = v
	}

	out["total_orders"] = s.TotalOrders
	out["pending_orders"] = s.PendingOrders
	out["today_orders"] = s.TodayOrders
	out["total_revenue"] = s.TotalRevenue

	return json.Marshal(out)
}
