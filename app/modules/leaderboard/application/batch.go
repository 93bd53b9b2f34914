package leaderboardservice

import "time"

// PartitionIDs splits ids into consecutive batches of size batchSize,
// preserving order. Every id appears in exactly one batch; the last batch
// may be short.
func PartitionIDs(ids []int64, batchSize int) [][]int64 {
	if batchSize <= 0 || len(ids) == 0 {
		if len(ids) == 0 {
			return nil
		}
		return [][]int64{ids}
	}

	batches := make([][]int64, 0, (len(ids)+batchSize-1)/batchSize)
	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}

// batchStart computes when batch batchIndex begins: staggered offsets bound
// the number of simultaneously in-flight outbound calls to roughly one
// batch's worth.
func batchStart(base time.Time, batchIndex int, interval time.Duration) time.Time {
	return base.Add(time.Duration(batchIndex) * interval)
}

// rankFallbackAt computes when the safety-net rank job fires: after every
// batch's slot plus a settle delay.
func rankFallbackAt(base time.Time, batchCount int, interval, settle time.Duration) time.Time {
	return base.Add(time.Duration(batchCount)*interval + settle)
}
