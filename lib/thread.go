package lib

/* thread.go contains the fork-join worker pool that every data-parallel
pass over leaves, particles or nodes runs on, plus the thread-count and
CPU-affinity setup a rank does before starting work. */

import (
	"runtime"

	"golang.org/x/sys/unix"

	"github.com/phil-mansfield/cstone/lib/errs"
)

// SetThreads pins GOMAXPROCS to n, refusing to oversubscribe the node.
// Pass -1 to use every available core.
func SetThreads(n int) error {
	if n > runtime.NumCPU() {
		return errs.External("%d threads requested, but this node only has %d cores. "+
			"Pass -1 to use every available core.", n, runtime.NumCPU())
	}
	if n < 0 {
		n = runtime.NumCPU()
	}
	runtime.GOMAXPROCS(n)
	return nil
}

// PinToCPUs restricts the calling process to the given CPU indices via
// sched_setaffinity, so a rank's fork-join workers stay on the cores its
// job launcher allocated instead of migrating mid-pass.
func PinToCPUs(cpus []int) error {
	var set unix.CPUSet
	set.Zero()
	for _, c := range cpus {
		set.Set(c)
	}
	return unix.SchedSetaffinity(0, &set)
}

// ForkJoin splits [0,n) into contiguous chunks, one per worker, and runs
// fn(lo,hi) for each chunk concurrently, blocking until every chunk
// completes. Every octree, halo and exchange pass in this module that
// needs intra-rank parallelism goes through this instead of spinning up
// its own goroutines, so there is one place that owns worker-count and
// chunking policy.
func ForkJoin(n, workers int, fn func(lo, hi int)) {
	if n == 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}

	chunk := (n + workers - 1) / workers
	done := make(chan struct{}, workers)
	launched := 0
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		launched++
		go func(lo, hi int) {
			fn(lo, hi)
			done <- struct{}{}
		}(lo, hi)
	}
	for i := 0; i < launched; i++ {
		<-done
	}
}
