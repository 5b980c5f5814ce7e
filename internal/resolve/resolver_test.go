package resolve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/config"
	perrors "github.com/Yaswanth-Vempuluru-7916/ollama-tools/internal/errors"
)

var testContainers = []string{
	"/stage-bit-ponder", "/staging-cobi-v2", "/staging-evm-relay", "/staging-evm-watcher",
	"/staging-info-server", "/staging-quote", "/quote-staging", "/solana-relayer-staging",
	"/solana-watcher-staging", "/starkner-watcher-staging",
}

const fixedNow = int64(1744010000)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	cfg := &config.Config{
		Containers:       testContainers,
		DefaultContainer: "/staging-cobi-v2",
		FuzzyThreshold:   80,
		DefaultTimeRange: time.Hour,
		MaxLookback:      30 * 24 * time.Hour,
		DefaultLimit:     100,
		MaxLimit:         5000,
	}
	r := New(cfg, zaptest.NewLogger(t))
	return r.WithClock(func() time.Time { return time.Unix(fixedNow, 0) })
}

func TestResolveFuzzyContainer(t *testing.T) {
	r := newTestResolver(t)

	// Misspelled container with spaces resolves to the enumerated entry
	q, err := r.Resolve(map[string]any{"container": "cobi v2"}, "fetch logs of cobi v2")
	require.NoError(t, err)
	assert.Equal(t, "/staging-cobi-v2", q.Container)
}

func TestResolveUnknownContainer(t *testing.T) {
	r := newTestResolver(t)

	_, err := r.Resolve(map[string]any{"container": "totally-unknown"}, "fetch logs")
	require.Error(t, err)

	var cerr *perrors.InvalidContainerError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "/totally-unknown", cerr.Input)
	assert.NotEmpty(t, cerr.Closest, "error must name the closest enumerated candidate")
	assert.Less(t, cerr.Score, 80)
}

func TestResolveDeterministic(t *testing.T) {
	r := newTestResolver(t)
	args := map[string]any{"container": "staging evm watcher"}

	first, err := r.Resolve(args, "show logs")
	require.NoError(t, err)
	second, err := r.Resolve(args, "show logs")
	require.NoError(t, err)
	assert.Equal(t, first.Container, second.Container)
}

func TestResolveDefaults(t *testing.T) {
	r := newTestResolver(t)

	// Prompt signals no time range or limit intent, so model-supplied
	// bounds are discarded and defaults apply.
	q, err := r.Resolve(map[string]any{
		"container":  "/staging-quote",
		"start_time": float64(100),
		"end_time":   float64(200),
		"limit":      float64(9),
	}, "fetch logs of /staging-quote")
	require.NoError(t, err)

	assert.Equal(t, fixedNow-3600, q.Start)
	assert.Equal(t, fixedNow, q.End)
	assert.Equal(t, 100, q.Limit)
}

func TestResolveHonorsSignaledFields(t *testing.T) {
	r := newTestResolver(t)

	q, err := r.Resolve(map[string]any{
		"container":  "/staging-quote",
		"start_time": float64(1744002429),
		"end_time":   float64(1744006029),
		"limit":      float64(150),
	}, "fetch logs from start = 1744002429 to end = 1744006029 and limit = 150")
	require.NoError(t, err)

	assert.Equal(t, int64(1744002429), q.Start)
	assert.Equal(t, int64(1744006029), q.End)
	assert.Equal(t, 150, q.Limit)
}

func TestResolveCoercesDigitStrings(t *testing.T) {
	r := newTestResolver(t)

	q, err := r.Resolve(map[string]any{
		"container":  "/staging-quote",
		"start_time": "1744002429",
		"end_time":   "1744006029",
		"limit":      "150",
	}, "logs from 1744002429 until 1744006029, limit 150")
	require.NoError(t, err)

	assert.Equal(t, int64(1744002429), q.Start)
	assert.Equal(t, int64(1744006029), q.End)
	assert.Equal(t, 150, q.Limit)
}

func TestResolveRejectsNonNumericHonoredValue(t *testing.T) {
	r := newTestResolver(t)

	_, err := r.Resolve(map[string]any{
		"container": "/staging-quote",
		"limit":     "plenty",
	}, "fetch logs with limit plenty")
	require.Error(t, err)

	var aerr *perrors.InvalidArgumentError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "limit", aerr.Field)
}

func TestResolveSwapsInvertedRange(t *testing.T) {
	r := newTestResolver(t)

	q, err := r.Resolve(map[string]any{
		"container":  "/staging-quote",
		"start_time": float64(1744006029),
		"end_time":   float64(1744002429),
	}, "logs from 1744006029 to 1744002429")
	require.NoError(t, err)

	assert.Equal(t, int64(1744002429), q.Start)
	assert.Equal(t, int64(1744006029), q.End)
}

func TestResolveClampsLookback(t *testing.T) {
	r := newTestResolver(t)
	maxWindow := int64(30 * 24 * 3600)

	q, err := r.Resolve(map[string]any{
		"container":  "/staging-quote",
		"start_time": float64(fixedNow - 2*maxWindow),
		"end_time":   float64(fixedNow),
	}, "logs from way back until now")
	require.NoError(t, err)

	assert.Equal(t, fixedNow-maxWindow, q.Start)
	assert.Equal(t, fixedNow, q.End)
}

func TestResolveClampsLimit(t *testing.T) {
	r := newTestResolver(t)

	q, err := r.Resolve(map[string]any{
		"container": "/staging-quote",
		"limit":     float64(99999),
	}, "logs with limit 99999")
	require.NoError(t, err)
	assert.Equal(t, 5000, q.Limit)

	q, err = r.Resolve(map[string]any{
		"container": "/staging-quote",
		"limit":     float64(0),
	}, "logs with limit 0")
	require.NoError(t, err)
	assert.Equal(t, 1, q.Limit)
}

// Every resolved query must satisfy the safety invariants regardless of
// what the model supplied.
func TestResolveInvariants(t *testing.T) {
	r := newTestResolver(t)
	maxWindow := int64(30 * 24 * 3600)

	cases := []map[string]any{
		{"container": "/staging-quote"},
		{"container": "/staging-quote", "start_time": float64(0), "end_time": float64(fixedNow)},
		{"container": "/staging-quote", "start_time": float64(fixedNow), "end_time": float64(0)},
		{"container": "/staging-quote", "limit": float64(-5)},
		{"container": "/staging-quote", "start_time": "42", "end_time": "41", "limit": "70000"},
	}

	for _, args := range cases {
		q, err := r.Resolve(args, "logs from start to end with limit")
		require.NoError(t, err)
		assert.LessOrEqual(t, q.Start, q.End)
		assert.LessOrEqual(t, q.End-q.Start, maxWindow)
		assert.GreaterOrEqual(t, q.Limit, 1)
		assert.LessOrEqual(t, q.Limit, 5000)
	}
}

func TestResolveMissingContainerUsesDefault(t *testing.T) {
	r := newTestResolver(t)

	q, err := r.Resolve(map[string]any{}, "fetch recent logs")
	require.NoError(t, err)
	assert.Equal(t, "/staging-cobi-v2", q.Container)
}

func TestDisplayShowsEffectiveValues(t *testing.T) {
	r := newTestResolver(t)

	q, err := r.Resolve(map[string]any{"container": "/staging-quote"}, "fetch logs")
	require.NoError(t, err)

	display := q.Display()
	assert.Contains(t, display, `container="/staging-quote"`)
	assert.Contains(t, display, "limit=100")
}
