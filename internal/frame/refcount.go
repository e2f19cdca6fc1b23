package frame

import "sync/atomic"

// refBuffer is the shared, atomically ref-counted backing allocation for a
// VideoFrame or AudioData carrier family (spec §4.1, §5 "Frame carriers use
// atomic ref-counts; once close() is observed the backing allocation must
// be freed").
type refBuffer struct {
	data  []byte
	count int32 // starts at 1 for the carrier that allocated it
}

func newRefBuffer(data []byte) *refBuffer {
	return &refBuffer{data: data, count: 1}
}

// retain increments the ref count; called by clone().
func (b *refBuffer) retain() {
	atomic.AddInt32(&b.count, 1)
}

// release decrements the ref count and reports whether this was the last
// reference (the allocation is now eligible for GC).
func (b *refBuffer) release() bool {
	n := atomic.AddInt32(&b.count, -1)
	if n == 0 {
		b.data = nil
		return true
	}
	return false
}
