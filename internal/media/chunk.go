package media

import "fmt"

// ChunkSize is the largest payload sent in one upload request.
const ChunkSize int64 = 5 << 20

// Range is the half-open byte range [Start, End).
type Range struct {
	Start int64
	End   int64
}

func (r Range) Len() int64 { return r.End - r.Start }

// ContentRange formats r as "bytes start-(end-1)/total".
func (r Range) ContentRange(total int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End-1, total)
}

// Plan splits [0, size) into ceil(size/chunk) contiguous ranges.
func Plan(size, chunk int64) []Range {
	if size <= 0 || chunk <= 0 {
		return nil
	}
	n := (size + chunk - 1) / chunk
	out := make([]Range, 0, n)
	for start := int64(0); start < size; start += chunk {
		out = append(out, Range{Start: start, End: min(start+chunk, size)})
	}
	return out
}
