package wire

import (
	"crypto/subtle"
	"runtime"
)

// SecureWipe overwrites buf with zeros using a constant-time copy so the
// compiler cannot optimise the write away. Use it immediately after a
// party no longer needs a raw share buffer it decoded from a share file.
//
// This is best-effort: the garbage collector may still retain earlier
// copies until its next cycle.
func SecureWipe(buf []byte) {
	if len(buf) == 0 {
		return
	}
	zero := make([]byte, len(buf))
	subtle.ConstantTimeCopy(1, buf, zero)
	runtime.KeepAlive(&buf[0])
}
