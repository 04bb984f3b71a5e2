/*Package layout computes the offset table that maps a sorted set of
global leaf indices (locally assigned nodes plus incoming halo nodes)
onto positions inside one contiguous per-attribute buffer.
*/
package layout

import "sort"

// ArrayLayout is the sorted list of global leaf indices this rank holds
// data for (its own assigned leaves plus every halo leaf it received),
// together with the offset of each inside the shared attribute buffer.
type ArrayLayout struct {
	// NodeList is the sorted, deduplicated list of global leaf indices.
	NodeList []int
	// Offset[i] is the buffer offset of NodeList[i]; Offset has one more
	// entry than NodeList, with the last entry equal to the total buffer
	// size.
	Offset []int
	// localMask[i] reports whether NodeList[i] is one of this rank's own
	// assigned leaves (true) rather than an incoming halo leaf (false).
	localMask []bool

	byNode map[int]int // global leaf index -> position in NodeList
}

// Build merges the locally assigned leaf indices and the incoming halo
// leaf indices into one sorted, deduplicated NodeList, and computes
// prefix-sum offsets from counts (indexed by global leaf index).
func Build(localLeaves, haloLeaves []int, counts []int) *ArrayLayout {
	seen := make(map[int]bool, len(localLeaves)+len(haloLeaves))
	localSet := make(map[int]bool, len(localLeaves))
	for _, i := range localLeaves {
		seen[i] = true
		localSet[i] = true
	}
	for _, i := range haloLeaves {
		seen[i] = true
	}

	nodeList := make([]int, 0, len(seen))
	for i := range seen {
		nodeList = append(nodeList, i)
	}
	sort.Ints(nodeList)

	offset := make([]int, len(nodeList)+1)
	localMask := make([]bool, len(nodeList))
	byNode := make(map[int]int, len(nodeList))
	for i, node := range nodeList {
		offset[i+1] = offset[i] + counts[node]
		localMask[i] = localSet[node]
		byNode[node] = i
	}

	return &ArrayLayout{NodeList: nodeList, Offset: offset, localMask: localMask, byNode: byNode}
}

// TotalSize returns the size of the buffer this layout describes.
func (l *ArrayLayout) TotalSize() int {
	if len(l.Offset) == 0 {
		return 0
	}
	return l.Offset[len(l.Offset)-1]
}

// Lookup maps a global leaf index to its (bufferOffset, count) in O(1)
// via the layout's hash table, returning ok=false if the leaf is not
// part of this layout.
func (l *ArrayLayout) Lookup(globalLeaf int) (offset, count int, ok bool) {
	pos, ok := l.byNode[globalLeaf]
	if !ok {
		return 0, 0, false
	}
	return l.Offset[pos], l.Offset[pos+1] - l.Offset[pos], true
}

// LocalRanges returns the buffer ranges [lo,hi) that are locally owned
// (writable), as opposed to halo ranges (read-only). Consecutive local
// leaves are coalesced into a single range.
func (l *ArrayLayout) LocalRanges() [][2]int {
	var ranges [][2]int
	i := 0
	for i < len(l.NodeList) {
		if !l.localMask[i] {
			i++
			continue
		}
		lo := l.Offset[i]
		j := i
		for j < len(l.NodeList) && l.localMask[j] {
			j++
		}
		ranges = append(ranges, [2]int{lo, l.Offset[j]})
		i = j
	}
	return ranges
}
