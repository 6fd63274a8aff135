package source

import (
	"sync"
	"time"

	"github.com/mrlokans/reader/internal/reading"
)

// Latency thresholds for mapping the rolling average onto a quality
// category. Tuned for text payloads in the tens of kilobytes.
const (
	fastThreshold   = 300 * time.Millisecond
	mediumThreshold = 1200 * time.Millisecond

	// minSamples is how many requests must be observed before the monitor
	// reports anything other than unknown.
	minSamples = 3

	// ewmaAlpha weights recent requests; quality can shift mid-session.
	ewmaAlpha = 0.3
)

// QualityMonitor derives a coarse network-quality category from observed
// request latencies, as an exponentially weighted moving average. It is the
// best-effort signal behind adaptive prefetch sizing: reads never block and
// report unknown until enough samples exist.
type QualityMonitor struct {
	mu      sync.Mutex
	avg     float64
	samples int
}

// NewQualityMonitor creates a monitor with no samples.
func NewQualityMonitor() *QualityMonitor {
	return &QualityMonitor{}
}

// Record feeds one request duration into the rolling average.
func (m *QualityMonitor) Record(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.samples == 0 {
		m.avg = float64(d)
	} else {
		m.avg = ewmaAlpha*float64(d) + (1-ewmaAlpha)*m.avg
	}
	m.samples++
}

// Quality returns the current category. Safe to pass directly as the reading
// session's quality signal.
func (m *QualityMonitor) Quality() reading.Quality {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.samples < minSamples {
		return reading.QualityUnknown
	}
	avg := time.Duration(m.avg)
	switch {
	case avg <= fastThreshold:
		return reading.QualityFast
	case avg <= mediumThreshold:
		return reading.QualityMedium
	default:
		return reading.QualitySlow
	}
}
