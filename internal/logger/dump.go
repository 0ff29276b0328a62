package logger

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Raw model exchanges are noisy, so they go to a dedicated writer instead of
// the main log stream. Disabled until a writer is installed.

var (
	dumpMu     sync.Mutex
	dumpWriter io.Writer
)

func SetModelDumpWriter(w io.Writer) {
	dumpMu.Lock()
	dumpWriter = w
	dumpMu.Unlock()
}

// DumpModelExchange records one prompt/response pair for offline inspection.
func DumpModelExchange(label, prompt, response string) {
	dumpMu.Lock()
	w := dumpWriter
	dumpMu.Unlock()
	if w == nil {
		return
	}
	ts := time.Now().UTC().Format(time.RFC3339)
	fmt.Fprintf(w, "=== %s %s ===\n--- prompt ---\n%s\n--- response ---\n%s\n\n", ts, label, prompt, response)
}
