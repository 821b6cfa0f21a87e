// SPDX-License-Identifier: MIT

package backref

import (
	"io"

	"github.com/sirupsen/logrus"
)

// log is the package-level logger the block driver reports per-pass
// diagnostics to. It defaults to discarding output so importing this
// package never hijacks a caller's log stream; call SetLogger to opt in,
// the same convention libraries vendored in the corpus use for optional
// structured logging.
var log = newDiscardLogger()

func newDiscardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// SetLogger replaces the package logger. Pass nil to restore the default
// (discarding) logger.
func SetLogger(l *logrus.Logger) {
	if l == nil {
		log = newDiscardLogger()
		return
	}
	log = l
}
