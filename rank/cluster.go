package rank

// DefaultGapThreshold is the relative score drop at which result clusters
// split.
const DefaultGapThreshold = 0.4

// ClusterByGap finds the first natural break in a descending score list and
// returns the length of the leading cluster. A break occurs where the
// relative drop between adjacent scores meets the threshold. Nonpositive
// scores never make the cluster. A threshold outside (0,1] falls back to
// DefaultGapThreshold.
func ClusterByGap(scores []float64, threshold float64) int {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultGapThreshold
	}

	n := 0
	for _, s := range scores {
		if s <= 0 {
			break
		}
		n++
	}
	if n <= 1 {
		return n
	}

	for i := 1; i < n; i++ {
		drop := (scores[i-1] - scores[i]) / scores[i-1]
		if drop >= threshold {
			return i
		}
	}
	return n
}
