package log_test

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"pkg.world.dev/world-engine/assert"

	"pkg.world.dev/world-engine/ecstore/config"
	"pkg.world.dev/world-engine/ecstore/log"
)

type fakeEngine struct {
	components []string
	systems    []string
}

func (f fakeEngine) Components() []string  { return f.components }
func (f fakeEngine) SystemNames() []string { return f.systems }

func TestEngineLogger(t *testing.T) {
	var buf bytes.Buffer
	bufLogger := zerolog.New(&buf)
	target := fakeEngine{
		components: []string{"pos", "vel"},
		systems:    []string{"ecs_test.moveSystem"},
	}

	log.Components(&bufLogger, target, zerolog.DebugLevel)
	require.JSONEq(t, `
		{
			"level":"debug",
			"total_components":2,
			"components":[
				{"component_id":0,"component_name":"pos"},
				{"component_id":1,"component_name":"vel"}
			]
		}`, buf.String())

	buf.Reset()
	log.Systems(&bufLogger, target, zerolog.DebugLevel)
	require.JSONEq(t, `{"level":"debug","total_systems":1,"systems":["ecs_test.moveSystem"]}`, buf.String())
}

func TestEntityAndFamilyLogger(t *testing.T) {
	var buf bytes.Buffer
	bufLogger := zerolog.New(&buf)

	log.Entity(&bufLogger, zerolog.DebugLevel, 7, []string{"pos"})
	require.JSONEq(t, `{"level":"debug","entity_id":7,"components":["pos"]}`, buf.String())

	buf.Reset()
	log.Family(&bufLogger, zerolog.DebugLevel, 0, []string{"pos", "vel"}, 2)
	require.JSONEq(t, `{"level":"debug","family_id":0,"components":["pos","vel"],"total_entities":2}`, buf.String())
}

func TestSubLoggers(t *testing.T) {
	var buf bytes.Buffer
	bufLogger := zerolog.New(&buf)

	log.CreateSystemLogger(log.CreateTraceLogger(&bufLogger, "abc"), "spawn").Info().Msg("hello")
	require.JSONEq(t, `{"level":"info","trace_id":"abc","system":"spawn","message":"hello"}`, buf.String())
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	cfg.LogLevel = "warn"

	logger, err := log.NewWithWriter(&buf, cfg)
	assert.NilError(t, err)
	logger.Info().Msg("dropped")
	assert.Equal(t, 0, buf.Len())
	logger.Warn().Msg("kept")
	assert.Check(t, bytes.Contains(buf.Bytes(), []byte(`"message":"kept"`)))
}

func TestNewPretty(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	cfg.LogPretty = true

	logger, err := log.NewWithWriter(&buf, cfg)
	assert.NilError(t, err)
	logger.Info().Msg("pretty")
	assert.Check(t, bytes.Contains(buf.Bytes(), []byte("pretty")))
	assert.Check(t, !bytes.HasPrefix(buf.Bytes(), []byte("{")))
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := log.NewWithWriter(&bytes.Buffer{}, config.Config{LogLevel: "loud"})
	require.ErrorContains(t, err, `invalid log level "loud"`)
}
