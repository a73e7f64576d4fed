// Package deadline tracks the wall-clock budget of one script execution.
//
// A single Info is computed when an execution starts and every host-side
// operation issued by that execution is raced against the same Info through a
// Governor. Sequential host calls therefore share one budget instead of each
// receiving a fresh per-call timeout.
//
// Example Usage:
//
//	gov := deadline.NewGovernor(deadline.New(5 * time.Second))
//	value, err := gov.Race(ctx, "readFile", func(ctx context.Context) (any, error) {
//	    return os.ReadFile(path)
//	})
//	if deadline.IsTimeout(err) {
//	    // budget exhausted
//	}
//	gov.Wait()
package deadline
