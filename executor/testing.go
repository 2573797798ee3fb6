package executor

import "sync"

// Tests and benchmarks in other packages share one runtime; each Load still
// gets its own instance, registry and memory. Guest memory is capped so a
// runaway fixture cannot take the test process down with it.
var (
	testMu   sync.Mutex
	testExec *Executor
)

// GetTestExecutor returns the shared test executor, creating it on first use.
func GetTestExecutor() (*Executor, error) {
	testMu.Lock()
	defer testMu.Unlock()
	if testExec == nil {
		exec, err := New(WithMemoryLimit(MemoryLimit64MB))
		if err != nil {
			return nil, err
		}
		testExec = exec
	}
	return testExec, nil
}

// CloseTestExecutor closes the shared test executor. A later
// GetTestExecutor creates a fresh one.
func CloseTestExecutor() {
	testMu.Lock()
	defer testMu.Unlock()
	if testExec != nil {
		testExec.Close()
		testExec = nil
	}
}
