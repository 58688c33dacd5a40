// ABOUTME: Prometheus metrics for a voice session
// ABOUTME: Exposes client counters as counter and gauge funcs plus a /metrics listener
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/seraphwave/seraphwave-go/pkg/seraphwave"
)

const namespace = "seraphwave"

// Source provides the counters to export. *seraphwave.Client satisfies it.
type Source interface {
	Stats() seraphwave.Stats
}

// Register adds the session metrics to reg. Values are read from src on
// every scrape.
func Register(reg prometheus.Registerer, src Source) {
	f := promauto.With(reg)

	counter := func(subsystem, name, help string, value func(seraphwave.Stats) uint64) {
		f.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(value(src.Stats())) })
	}
	gauge := func(subsystem, name, help string, value func(seraphwave.Stats) int) {
		f.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(value(src.Stats())) })
	}

	counter("protocol", "text_frames_total", "Text frames received from the gateway",
		func(s seraphwave.Stats) uint64 { return s.Protocol.TextFrames })
	counter("protocol", "audio_frames_total", "Audio frames received from the gateway",
		func(s seraphwave.Stats) uint64 { return s.Protocol.AudioFrames })
	counter("protocol", "rotations_total", "Listener rotation updates received",
		func(s seraphwave.Stats) uint64 { return s.Protocol.Rotations })
	counter("protocol", "dropped_frames_total", "Binary frames dropped as malformed",
		func(s seraphwave.Stats) uint64 { return s.Protocol.Dropped })
	counter("protocol", "unexpected_binary_total", "Binary frames received outside the online state",
		func(s seraphwave.Stats) uint64 { return s.Protocol.UnexpectedBinary })
	counter("protocol", "errors_total", "Protocol errors surfaced to the caller",
		func(s seraphwave.Stats) uint64 { return s.Protocol.Errors })
	counter("protocol", "sent_frames_total", "Audio frames written to the gateway",
		func(s seraphwave.Stats) uint64 { return s.Protocol.Sent })

	gauge("jitter", "speakers", "Remote speakers with a jitter buffer",
		func(s seraphwave.Stats) int { return s.Jitter.Speakers })
	counter("jitter", "frames_total", "Frames scheduled for playback",
		func(s seraphwave.Stats) uint64 { return s.Jitter.Frames })
	counter("jitter", "decode_errors_total", "Frames that failed to decode",
		func(s seraphwave.Stats) uint64 { return s.Jitter.DecodeErrors })
	counter("jitter", "resyncs_total", "Jitter buffer timeline resets",
		func(s seraphwave.Stats) uint64 { return s.Jitter.Resyncs })

	counter("mixer", "late_voices_total", "Voices whose start time had already passed",
		func(s seraphwave.Stats) uint64 { return s.Mixer.Late })
	gauge("mixer", "queued_voices", "Voices waiting for their start time",
		func(s seraphwave.Stats) int { return s.Mixer.Queued })
	gauge("mixer", "active_voices", "Voices currently playing",
		func(s seraphwave.Stats) int { return s.Mixer.Active })

	counter("capture", "chunks_total", "Chunks read from the capture source",
		func(s seraphwave.Stats) uint64 { return s.Capture.Chunks })
	counter("capture", "header_chunks_total", "Captured chunks dropped by the size rule",
		func(s seraphwave.Stats) uint64 { return s.Capture.HeaderChunks })
	counter("capture", "frames_total", "Encoded frames handed to the gateway",
		func(s seraphwave.Stats) uint64 { return s.Capture.Frames })
	counter("capture", "bytes_total", "Encoded bytes handed to the gateway",
		func(s seraphwave.Stats) uint64 { return s.Capture.Bytes })
}

// Handler serves the metrics gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve listens on addr until ctx ends
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, logger *log.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	})
	defer stop()

	logger.Info("Serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
