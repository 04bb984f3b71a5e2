/*Package domain splits the global cornerstone leaf sequence into
contiguous per-rank SFC ranges so that each rank receives close to its
fair share of particles, with ties broken toward lower-ranked processes.
*/
package domain

import "github.com/phil-mansfield/cstone/lib/sfc"

// Range is a half-open key range [Lo, Hi) assigned to one rank.
type Range[K any] struct {
	Lo, Hi K
}

// Assignment is a SpaceCurveAssignment: for each rank, the list of
// contiguous key ranges it owns. In the common case each rank owns
// exactly one contiguous range, since Assign never splits a rank's
// allocation once a leaf boundary satisfies it.
type Assignment[K any] struct {
	Ranges [][]Range[K]
}

// NumRanks returns the number of ranks this assignment covers.
func (a *Assignment[K]) NumRanks() int { return len(a.Ranges) }

// Assign partitions the leaf sequence (boundaries, len(counts)+1 long)
// across numRanks ranks so that each rank gets as close to
// ceil(total/numRanks) particles as possible, splitting only at leaf
// boundaries. Ties in the running total are broken by giving the extra
// particles to the lower-ranked process, i.e. each rank's target is
// computed from a running remainder that prefers finishing early ranks
// first.
func Assign[K any](ops sfc.Ops[K], leaves []K, counts []int, numRanks int) *Assignment[K] {
	total := 0
	for _, c := range counts {
		total += c
	}

	result := &Assignment[K]{Ranges: make([][]Range[K], numRanks)}
	if numRanks == 0 || len(counts) == 0 {
		return result
	}

	rank := 0
	rankStart := 0
	runningCount := 0
	remaining := total
	remainingRanks := numRanks

	for i := 0; i < len(counts); i++ {
		runningCount += counts[i]

		// Target for the current rank: an even split of whatever
		// particles remain across whatever ranks remain, so earlier
		// ranks absorb the remainder of an uneven division rather than
		// the last rank.
		target := (remaining + remainingRanks - 1) / remainingRanks
		atLastLeaf := i == len(counts)-1
		atLastRank := rank == numRanks-1

		if (runningCount >= target && !atLastRank) || atLastLeaf {
			result.Ranges[rank] = append(result.Ranges[rank], Range[K]{
				Lo: leaves[rankStart], Hi: leaves[i+1],
			})
			remaining -= runningCount
			remainingRanks--
			runningCount = 0
			rankStart = i + 1
			if !atLastRank {
				rank++
			}
		}
	}
	return result
}
