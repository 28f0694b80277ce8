// Package statsd wraps the statsd client used to time dispatches.
// Until Init is called every metric goes to a no-op client.
package statsd

import (
	"time"

	ddstatsd "github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
)

const (
	// StageAllSystems tags the time spent running every system of a dispatch.
	StageAllSystems = "all_systems"
	// StageNotify tags the time spent flushing the event queues.
	StageNotify = "notify"
)

var client ddstatsd.ClientInterface = &ddstatsd.NoOpClient{}

func Client() ddstatsd.ClientInterface {
	return client
}

// EmitDispatchStat reports the time elapsed since start for the given dispatch stage.
func EmitDispatchStat(start time.Time, stage string) {
	duration := time.Since(start)
	if err := Client().Timing("dispatch", duration, []string{"stage:" + stage}, 1); err != nil {
		log.Logger.Warn().Msgf("failed to emit dispatch stat: %v", err)
	}
}

// EmitDispatchCount increments the dispatch counter for an action type.
func EmitDispatchCount(actionType string) {
	if err := Client().Incr("dispatch.count", []string{"action:" + actionType}, 1); err != nil {
		log.Logger.Warn().Msgf("failed to emit dispatch count: %v", err)
	}
}

// Init replaces the current client with one sending to address. The previous client is closed.
func Init(address string, tags []string) error {
	if address == "" {
		return eris.New("address must not be empty")
	}
	opts := []ddstatsd.Option{
		ddstatsd.WithNamespace("ecstore"),
	}
	if len(tags) > 0 {
		opts = append(opts, ddstatsd.WithTags(tags))
	}

	newClient, err := ddstatsd.New(address, opts...)
	if err != nil {
		return eris.Wrap(err, "failed to create statsd client")
	}
	if err := Reset(); err != nil {
		log.Logger.Warn().Err(err).Msg("failed to close previous statsd client")
	}
	client = newClient
	return nil
}

// Reset puts the no-op client back, closing the current one.
func Reset() error {
	old := client
	client = &ddstatsd.NoOpClient{}
	if err := old.Close(); err != nil {
		return eris.Wrap(err, "failed to close statsd client")
	}
	return nil
}
