package reading

// Quality is a coarse network-quality category used to size read-ahead.
type Quality int

const (
	QualityUnknown Quality = iota
	QualitySlow
	QualityMedium
	QualityFast
)

func (q Quality) String() string {
	switch q {
	case QualitySlow:
		return "slow"
	case QualityMedium:
		return "medium"
	case QualityFast:
		return "fast"
	default:
		return "unknown"
	}
}

// QualityFunc reports the current network quality. Implementations must be
// best-effort: never block, never fail. Return QualityUnknown when no signal
// is available.
type QualityFunc func() Quality

// Prefetch depths per quality category. Fast connections warm further ahead;
// slow ones fetch the bare minimum to bound bandwidth use.
const (
	depthSlow    = 1
	depthMedium  = 3
	depthFast    = 8
	depthDefault = 5
)

// PrefetchDepth maps a quality category to the number of chapters to warm.
func PrefetchDepth(q Quality) int {
	switch q {
	case QualitySlow:
		return depthSlow
	case QualityMedium:
		return depthMedium
	case QualityFast:
		return depthFast
	default:
		return depthDefault
	}
}
