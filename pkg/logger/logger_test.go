package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildcard/cmdai/pkg/types"
)

// syncBuffer is a goroutine-safe bytes.Buffer for use as a test sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestPipeline(t *testing.T, cfg Config) (*Pipeline, *syncBuffer) {
	t.Helper()
	sink := &syncBuffer{}
	p, err := newPipelineWriter(cfg, sink, nil, false)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p, sink
}

func jsonConfig(level types.LogLevel) Config {
	cfg := DefaultConfig()
	cfg.Level = level
	cfg.Format = types.FormatJSON
	return cfg
}

func TestJSONFormatKeys(t *testing.T) {
	p, sink := newTestPipeline(t, jsonConfig(types.LevelInfo))

	p.For("cache").Info("model cached", "model_id", "acme/tiny", "size", 1024)
	p.Flush()

	var event map[string]any
	require.NoError(t, json.Unmarshal([]byte(sink.String()), &event))

	assert.Equal(t, "info", event["level"])
	assert.Equal(t, "model cached", event["message"])
	assert.Equal(t, "cache", event["target"])
	assert.Equal(t, "acme/tiny", event["model_id"])
	assert.Contains(t, event["timestamp"], "T")
	assert.NotContains(t, event, "msg")
	assert.NotContains(t, event, "time")
}

func TestLevelGate(t *testing.T) {
	p, sink := newTestPipeline(t, jsonConfig(types.LevelWarn))

	log := p.For("test")
	log.Debug("too quiet")
	log.Info("still too quiet")
	log.Warn("loud enough")
	log.Error("definitely")
	p.Flush()

	out := sink.String()
	assert.NotContains(t, out, "too quiet")
	assert.Contains(t, out, "loud enough")
	assert.Contains(t, out, "definitely")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestPrettyFormatShape(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = types.FormatPretty
	p, sink := newTestPipeline(t, cfg)

	p.For("config").Info("profile loaded", "path", "/tmp/config.toml")
	p.Flush()

	out := sink.String()
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} INFO config: profile loaded`, out)
	assert.Contains(t, out, "path=/tmp/config.toml")
	// Sink is not a terminal: no ANSI escapes.
	assert.NotContains(t, out, "\x1b[")
}

func TestRedactionOnRenderedOutput(t *testing.T) {
	p, sink := newTestPipeline(t, jsonConfig(types.LevelInfo))

	p.For("test").Info("connecting", "api_key", "sk-supersecret", "detail", "password: hunter2")
	p.Flush()

	out := sink.String()
	assert.NotContains(t, out, "sk-supersecret")
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "[REDACTED:API_KEY]")
	assert.Contains(t, out, "[REDACTED:PASSWORD]")
}

func TestRedactionDisabled(t *testing.T) {
	cfg := jsonConfig(types.LevelInfo)
	cfg.RedactionEnabled = false
	p, sink := newTestPipeline(t, cfg)

	p.For("test").Info("raw", "api_key", "sk-visible")
	p.Flush()
	assert.Contains(t, sink.String(), "sk-visible")
}

func TestRegisterRedactionPatternMalformed(t *testing.T) {
	err := RegisterRedactionPattern("([unclosed")
	require.Error(t, err)

	var perr *InvalidPatternError
	assert.ErrorAs(t, err, &perr)
}

func TestCustomRedactionPattern(t *testing.T) {
	t.Cleanup(resetRedactionPatterns)
	require.NoError(t, RegisterRedactionPattern(`(ssn)[:=]\d{3}-\d{2}-\d{4}`))

	p, sink := newTestPipeline(t, jsonConfig(types.LevelInfo))
	p.For("test").Info("record", "note", "ssn:123-45-6789")
	p.Flush()

	out := sink.String()
	assert.NotContains(t, out, "123-45-6789")
	assert.Contains(t, out, "[REDACTED:SSN]")
}

func TestInitInstallsOnce(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output = SinkStderr

	first := Init(cfg)
	if first != nil {
		// Another test file initialized already; that still proves the gate.
		assert.ErrorIs(t, first, ErrAlreadyInitialized)
	}
	assert.ErrorIs(t, Init(cfg), ErrAlreadyInitialized)

	// Post-init registration of even a valid pattern is rejected.
	err := RegisterRedactionPattern(`(pin)=\d+`)
	var perr *InvalidPatternError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Reason, "after logger initialization")

	assert.NotNil(t, For("anything"))
	Flush()
}

func TestPipelineRejectsUnknownLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = types.LogLevel("chatty")
	_, err := newPipelineWriter(cfg, &syncBuffer{}, nil, false)

	var lerr *InvalidLevelError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "chatty", lerr.Value)
}
