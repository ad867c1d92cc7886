package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressor_ShouldCompress(t *testing.T) {
	c := &Compressor{Enabled: true}
	long := strings.Repeat("x", 300)
	short := strings.Repeat("x", 50)

	assert.True(t, c.ShouldCompress("fetch_price_history", long, []string{"fetch_price_history"}))
	assert.False(t, c.ShouldCompress("fetch_price_history", short, []string{"fetch_price_history"}), "below threshold")
	assert.False(t, c.ShouldCompress("symphony_save", long, []string{"symphony_save"}), "not data-heavy")
	assert.False(t, c.ShouldCompress("fetch_price_history", long, nil), "not opted in for this call")

	disabled := &Compressor{Enabled: false}
	assert.False(t, disabled.ShouldCompress("fetch_price_history", long, []string{"fetch_price_history"}))
}

func TestCompressor_Compress_FallsBackOnError(t *testing.T) {
	c := &Compressor{Enabled: true, Client: &fakeClient{errs: []error{assertErr{}}}}
	raw := "raw result"
	out := c.Compress(context.Background(), "fetch_price_history", raw)
	require.Equal(t, raw, out)
}

func TestCompressor_Compress_CapsLength(t *testing.T) {
	c := &Compressor{
		Enabled: true,
		Client: &fakeClient{responses: []ChatResponse{
			{Content: strings.Repeat("s", compressionHardCap+100)},
		}},
	}
	out := c.Compress(context.Background(), "fetch_price_history", "raw")
	assert.Len(t, out, compressionHardCap)
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
