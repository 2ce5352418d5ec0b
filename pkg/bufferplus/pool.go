package bufferplus

import "sync"

// Size-tiered pools of scratch buffers used by insert writes.
// Buffers are pooled in size classes: 256, 4096, 65536 bytes.
var scratchPools = [3]sync.Pool{
	{New: func() any { return &Buffer{data: make([]byte, 256)} }},   // Small: <= 256 bytes
	{New: func() any { return &Buffer{data: make([]byte, 4096)} }},  // Medium: <= 4KB
	{New: func() any { return &Buffer{data: make([]byte, 65536)} }}, // Large: <= 64KB
}

// scratchSizes maps pool index to capacity.
var scratchSizes = [3]int{256, 4096, 65536}

// scratchIndex returns the pool index for a given size hint.
func scratchIndex(size int) int {
	for i, s := range scratchSizes {
		if size <= s {
			return i
		}
	}
	return -1 // Too large for pooling
}

// getScratch returns an empty buffer that shares parent's encoding and
// registry. Hints above 64KB get a fresh allocation.
func getScratch(parent *Buffer, sizeHint int) *Buffer {
	var b *Buffer
	if idx := scratchIndex(sizeHint); idx >= 0 {
		b = scratchPools[idx].Get().(*Buffer)
	} else {
		b = &Buffer{data: make([]byte, sizeHint)}
	}
	b.Reset()
	b.enc = parent.enc
	b.reg = parent.reg
	return b
}

// putScratch returns a scratch buffer to the pool matching its capacity.
// Buffers that grew past 64KB are left to the garbage collector.
func putScratch(b *Buffer) {
	c := b.Cap()
	if c > scratchSizes[len(scratchSizes)-1] {
		return
	}
	// A buffer goes into the largest class it can fully serve.
	for i := len(scratchSizes) - 1; i >= 0; i-- {
		if c >= scratchSizes[i] {
			b.reg = nil
			scratchPools[i].Put(b)
			return
		}
	}
}
