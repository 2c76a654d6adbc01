package runloop

import (
	"bytes"
	"runtime"
)

var goroutinePrefix = []byte("goroutine ")

// goid returns the current goroutine's ID, parsed from the first line of its
// stack trace ("goroutine 42 [running]:"), or 0 if that fails.
func goid() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parseGoid(buf[:n])
}

func parseGoid(stack []byte) int64 {
	if !bytes.HasPrefix(stack, goroutinePrefix) {
		return 0
	}
	var id int64
	for _, c := range stack[len(goroutinePrefix):] {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + int64(c-'0')
	}
	return id
}
