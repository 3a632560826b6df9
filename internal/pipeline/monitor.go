package pipeline

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// MonitorConnectivity probes probeURL on an interval and feeds the result
// into SetOnline. It blocks until ctx is cancelled; run it in a goroutine.
func (p *Pipeline) MonitorConnectivity(ctx context.Context, probeURL string, interval time.Duration) {
	client := &http.Client{Timeout: 10 * time.Second}

	probe := func() {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, probeURL, nil)
		if err != nil {
			return
		}
		resp, err := client.Do(req)
		if err != nil {
			log.Debug().Err(err).Msg("connectivity probe failed")
			p.SetOnline(false)
			return
		}
		resp.Body.Close()
		p.SetOnline(true)
	}

	probe()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probe()
		}
	}
}
