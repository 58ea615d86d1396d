package engine

import "sync"

// =============================================================================
// PER-AGENT WORKER POOL
// =============================================================================
// Each agent's pipeline (processing -> qualification -> tiering ->
// distribution planning) reads only that agent's inputs, so agents fan
// out across a bounded pool. Workers never touch shared ledgers: they
// return their outputs by index and the orchestrator merges sequentially.

func forEachAgent[T any](workers int, agents []AgentID, fn func(AgentID) T) []T {
	if workers <= 0 {
		workers = 1
	}
	results := make([]T, len(agents))
	if len(agents) == 0 {
		return results
	}
	if workers > len(agents) {
		workers = len(agents)
	}

	indexCh := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexCh {
				results[idx] = fn(agents[idx])
			}
		}()
	}

	for i := range agents {
		indexCh <- i
	}
	close(indexCh)
	wg.Wait()
	return results
}
