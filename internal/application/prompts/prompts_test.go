package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_SubstitutesKnownKeys(t *testing.T) {
	out := Render("Hello {{name}}, today is {{day}}.", map[string]string{
		"name": "Ada",
		"day":  "Monday",
	})
	assert.Equal(t, "Hello Ada, today is Monday.", out)
}

func TestRender_LeavesUnknownPlaceholderUntouched(t *testing.T) {
	out := Render("Value: {{missing}}", map[string]string{"other": "x"})
	assert.Equal(t, "Value: {{missing}}", out)
}

func TestRenderAny_StringifiesNonStringValues(t *testing.T) {
	out := RenderAny("count={{count}}", map[string]any{"count": 5})
	assert.Equal(t, "count=5", out)
}

func TestJoinNonEmpty_SkipsBlanks(t *testing.T) {
	out := JoinNonEmpty([]string{"a", "", "  ", "b"}, ", ")
	assert.Equal(t, "a, b", out)
}

func TestByID_FindsRegisteredPersona(t *testing.T) {
	p, ok := ByID("tail_risk")
	require.True(t, ok)
	assert.Equal(t, "Tail-Risk / Volatility Strategist", p.Label)
}

func TestByID_UnknownReturnsFalse(t *testing.T) {
	_, ok := ByID("nonexistent")
	assert.False(t, ok)
}

func TestPersonas_HasFiveDistinctIDs(t *testing.T) {
	require.Len(t, Personas, 5)
	seen := map[string]bool{}
	for _, p := range Personas {
		seen[p.ID] = true
	}
	assert.Len(t, seen, 5)
}

func TestImmutabilitySection_RendersBothLists(t *testing.T) {
	out := ImmutabilitySection([]string{"assets", "name"}, []string{"weights"})
	assert.Contains(t, out, "assets, name")
	assert.Contains(t, out, "weights")
}
