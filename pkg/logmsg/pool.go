package logmsg

import (
	"encoding/binary"
	"sync"
)

var varintPool = sync.Pool{
	New: func() any {
		buf := make([]byte, binary.MaxVarintLen64)
		return &buf
	},
}

// getUvarint returns a pooled buffer holding the uvarint encoding of val.
// Call release with a pointer to buf afterwards; the pointer form keeps the
// buffer header from escaping.
func getUvarint(val uint64) (buf []byte, release func(*[]byte)) {
	bufPtr := varintPool.Get().(*[]byte)
	buf = (*bufPtr)[:0]
	buf = binary.AppendUvarint(buf, val)

	return buf, func(b *[]byte) { varintPool.Put(b) }
}
