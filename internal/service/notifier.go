package service

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// SpinNotifier periodically pings the external spin announcement hook so the
// bot side can remind users whose cooldown has elapsed. It is best-effort:
// failures are logged and retried on the next tick.
type SpinNotifier struct {
	url      string
	interval time.Duration
	client   *http.Client
}

func NewSpinNotifier(url string, interval time.Duration) *SpinNotifier {
	return &SpinNotifier{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Run blocks until ctx is cancelled. It does nothing when no hook URL is
// configured.
func (n *SpinNotifier) Run(ctx context.Context) {
	if n.url == "" {
		log.Info().Msg("spin notifier disabled: no hook URL configured")
		return
	}

	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	log.Info().Str("url", n.url).Dur("interval", n.interval).Msg("spin notifier started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("spin notifier stopped")
			return
		case <-ticker.C:
			n.notify(ctx)
		}
	}
}

func (n *SpinNotifier) notify(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to build spin notification request")
		return
	}

	resp, err := n.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("spin notification failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Warn().Int("status", resp.StatusCode).Msg("spin notification rejected")
		return
	}
	log.Debug().Msg("spin notification sent")
}
