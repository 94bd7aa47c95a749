package parcsr

import (
	"io"
	"log"
)

const (
	ELIM  = "elim:"
	SPLIT = "split:"
	SCHED = "sched:"
)

var logger = log.New(io.Discard, "parcsr ", log.LstdFlags|log.Lshortfile)

// SetLogOutput redirects the package log, which is discarded by default.
func SetLogOutput(w io.Writer) {
	logger.SetOutput(w)
}
