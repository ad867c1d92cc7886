package prompts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quantpipeline/tradingagent/internal/domain"
)

func TestRenderContextPack_IncludesAllFields(t *testing.T) {
	pack := domain.ContextPack{
		AnchorDate:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		RegimeSnapshot:  "late-cycle, elevated vol",
		MacroIndicators: map[string]float64{"VIX": 28.5, "CPI_YOY": 0.031},
		BenchmarkPerformance: map[string]float64{
			"SPY_30d_return": 0.012,
		},
		RecentEvents: []string{"FOMC held rates steady"},
		RegimeTags:   []string{"high_vol", "late_cycle"},
	}

	out := RenderContextPack(pack)
	assert.Contains(t, out, "2026-03-01")
	assert.Contains(t, out, "late-cycle, elevated vol")
	assert.Contains(t, out, "VIX: 28.5")
	assert.Contains(t, out, "CPI_YOY: 0.031")
	assert.Contains(t, out, "SPY_30d_return: 0.012")
	assert.Contains(t, out, "FOMC held rates steady")
	assert.Contains(t, out, "high_vol, late_cycle")
}
