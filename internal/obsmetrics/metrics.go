// Package obsmetrics wraps the OpenTelemetry metric API with the small set
// of counters and histograms the scheduler and offline mixdown emit.
// Callers that don't want metrics (tests, short-lived CLI invocations) pass
// the global no-op MeterProvider and these become zero-cost.
package obsmetrics

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// Scheduler holds the instruments the playback scheduler updates on every
// tick, skip, and session transition.
type Scheduler struct {
	lookaheadTicks  metric.Int64Counter
	gainTicks       metric.Int64Counter
	clipsSkipped    metric.Int64Counter
	sessionsStarted metric.Int64Counter
	tickLatency     metric.Float64Histogram
}

// NewScheduler creates the scheduler's instrument set from a meter, named
// under the "timelineaudio.scheduler" meter scope.
func NewScheduler(provider metric.MeterProvider) *Scheduler {
	meter := provider.Meter("timelineaudio.scheduler")
	lookaheadTicks, _ := meter.Int64Counter("scheduler.lookahead_ticks")
	gainTicks, _ := meter.Int64Counter("scheduler.gain_ticks")
	clipsSkipped, _ := meter.Int64Counter("scheduler.clips_skipped")
	sessionsStarted, _ := meter.Int64Counter("scheduler.sessions_started")
	tickLatency, _ := meter.Float64Histogram("scheduler.tick_latency_ms")
	return &Scheduler{
		lookaheadTicks:  lookaheadTicks,
		gainTicks:       gainTicks,
		clipsSkipped:    clipsSkipped,
		sessionsStarted: sessionsStarted,
		tickLatency:     tickLatency,
	}
}

func (s *Scheduler) LookaheadTick(ctx context.Context)  { s.lookaheadTicks.Add(ctx, 1) }
func (s *Scheduler) GainTick(ctx context.Context)        { s.gainTicks.Add(ctx, 1) }
func (s *Scheduler) ClipSkipped(ctx context.Context)      { s.clipsSkipped.Add(ctx, 1) }
func (s *Scheduler) SessionStarted(ctx context.Context)   { s.sessionsStarted.Add(ctx, 1) }
func (s *Scheduler) ObserveTickLatency(ctx context.Context, ms float64) {
	s.tickLatency.Record(ctx, ms)
}

// Mixdown holds the instruments the offline render path updates.
type Mixdown struct {
	chunksRendered metric.Int64Counter
	renderSeconds  metric.Float64Histogram
}

// NewMixdown creates the mixdown's instrument set.
func NewMixdown(provider metric.MeterProvider) *Mixdown {
	meter := provider.Meter("timelineaudio.mixdown")
	chunksRendered, _ := meter.Int64Counter("mixdown.chunks_rendered")
	renderSeconds, _ := meter.Float64Histogram("mixdown.render_seconds")
	return &Mixdown{chunksRendered: chunksRendered, renderSeconds: renderSeconds}
}

func (m *Mixdown) ChunkRendered(ctx context.Context) { m.chunksRendered.Add(ctx, 1) }
func (m *Mixdown) ObserveRenderSeconds(ctx context.Context, s float64) {
	m.renderSeconds.Record(ctx, s)
}
