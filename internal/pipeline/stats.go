package pipeline

// RunStats tracks aggregate counters and byte totals across a batch run.
type RunStats struct {
	Total   int
	Current int
	Placed  int
	Skipped int
	Failed  int

	// BytesPlaced sums the sizes of successfully placed files (source
	// sizes; in link mode this is the linked file's size, not the link's).
	BytesPlaced int64

	// Aborted is set when the run stopped before completing the batch:
	// invalid sources, declined confirmation, lock contention, or a fatal
	// placement failure.
	Aborted bool
}

// Ok reports whether the run completed with no failures.
func (s *RunStats) Ok() bool {
	return !s.Aborted && s.Failed == 0
}
