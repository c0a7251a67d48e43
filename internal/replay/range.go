package replay

import "errors"

var (
	ErrZeroBatchSize = errors.New("batch size must be greater than zero")
	ErrInvalidRange  = errors.New("to line must be >= from line")
)

// LineRange is an inclusive range of 1-based input lines.
type LineRange struct {
	From uint64
	To   uint64
}

// SplitRange splits a line range into batches of at most batchSize lines.
func SplitRange(from, to, batchSize uint64) ([]LineRange, error) {
	if batchSize == 0 {
		return nil, ErrZeroBatchSize
	}
	if to < from {
		return nil, ErrInvalidRange
	}

	ranges := make([]LineRange, 0, (to-from)/batchSize+1)
	for start := from; ; {
		end := to
		if to-start+1 > batchSize {
			end = start + batchSize - 1
		}
		ranges = append(ranges, LineRange{From: start, To: end})
		if end == to {
			break
		}
		start = end + 1
	}
	return ranges, nil
}
