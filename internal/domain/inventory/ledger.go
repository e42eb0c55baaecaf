package inventory

import "context"

// ReleaseAll returns every line to the ledger and reports the first failure after trying them all.
func ReleaseAll(ctx context.Context, l Ledger, lines []Line) error {
	var first error
	for _, line := range lines {
		if err := l.Release(ctx, line.ProductID, line.Quantity); err != nil && first == nil {
			first = err
		}
	}
	return first
}
