package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDashboardService_Overview(t *testing.T) {
	svc := NewDashboardService()
	ov := svc.Overview()

	labels := make([]string, 0, len(ov.Stats))
	for _, s := range ov.Stats {
		labels = append(labels, s.Label)
	}
	assert.Equal(t, []string{"Total Revenue", "Sales", "Units Sold", "Active Users"}, labels)
	assert.Equal(t, TrendDown, ov.Stats[2].Trend())
	assert.Equal(t, TrendUp, ov.Stats[0].Trend())
	assert.Len(t, ov.Activity, 3)

	// Callers get a copy.
	ov.Stats[0].Value = "changed"
	assert.Equal(t, "$189,374", svc.Overview().Stats[0].Value)
}
