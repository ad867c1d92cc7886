package prompts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quantpipeline/tradingagent/internal/domain"
)

// RenderContextPack renders a ContextPack verbatim as prompt text (§4.4:
// Charter receives the entire pack, never a summary; Generate and Score
// use the same rendering for consistency).
func RenderContextPack(pack domain.ContextPack) string {
	var b strings.Builder
	fmt.Fprintf(&b, "anchor_date: %s\n", pack.AnchorDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "regime_snapshot: %s\n", pack.RegimeSnapshot)
	fmt.Fprintf(&b, "regime_tags: %s\n", strings.Join(pack.RegimeTags, ", "))

	b.WriteString("macro_indicators:\n")
	for _, k := range sortedKeys(pack.MacroIndicators) {
		fmt.Fprintf(&b, "  %s: %g\n", k, pack.MacroIndicators[k])
	}

	b.WriteString("benchmark_performance:\n")
	for _, k := range sortedKeys(pack.BenchmarkPerformance) {
		fmt.Fprintf(&b, "  %s: %g\n", k, pack.BenchmarkPerformance[k])
	}

	b.WriteString("recent_events:\n")
	for _, e := range pack.RecentEvents {
		fmt.Fprintf(&b, "  - %s\n", e)
	}

	return b.String()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
