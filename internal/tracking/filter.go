package tracking

// DefaultAccuracyThresholdMeters rejects GPS fixes too imprecise for
// attendance proof.
const DefaultAccuracyThresholdMeters = 50.0

// AccuracyFilter is the stateless accept/reject policy for raw samples.
type AccuracyFilter struct {
	ThresholdMeters float64
}

func NewAccuracyFilter(thresholdMeters float64) AccuracyFilter {
	if thresholdMeters <= 0 {
		thresholdMeters = DefaultAccuracyThresholdMeters
	}
	return AccuracyFilter{ThresholdMeters: thresholdMeters}
}

// Accept reports whether the sample is precise enough. The boundary is
// inclusive on the accept side: exactly ThresholdMeters passes.
func (f AccuracyFilter) Accept(s Sample) bool {
	return s.AccuracyMeters <= f.ThresholdMeters
}
