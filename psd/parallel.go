package psd

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// parallelChunks runs fn(i) for i in [0, n) on up to workers goroutines
// and collects the results in index order, so the output is identical
// for any worker count. workers <= 0 means runtime.GOMAXPROCS(0).
//
// On failure no new work is started; items already running finish, and
// the error with the lowest index among the recorded failures is
// returned.
func parallelChunks(n, workers int, fn func(i int) ([]byte, error)) ([][]byte, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	results := make([][]byte, n)

	if workers <= 1 {
		for i := 0; i < n; i++ {
			data, err := fn(i)
			if err != nil {
				return nil, err
			}
			results[i] = data
		}
		return results, nil
	}

	errs := make([]error, n)
	var next atomic.Int64
	var failed atomic.Bool
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1)) - 1
				if i >= n || failed.Load() {
					return
				}
				data, err := fn(i)
				if err != nil {
					errs[i] = err
					failed.Store(true)
					return
				}
				results[i] = data
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
