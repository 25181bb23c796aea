package logger

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

// Init initializes the logger. Verbose mode enables the per-instruction
// trace, which is logged at debug level.
func Init(verbose, noColor bool) {
	log.SetDefault(NewLogger(os.Stderr, verbose, noColor))
}

// NewLogger builds the logger Init installs, writing to w
func NewLogger(w io.Writer, verbose, noColor bool) *log.Logger {
	l := log.NewWithOptions(io.MultiWriter(w),
		log.Options{
			ReportCaller:    true,
			ReportTimestamp: false,
			TimeFormat:      time.RFC3339,
			Prefix:          "JINTERP",
		})

	l.SetLevel(log.WarnLevel)
	if verbose {
		l.SetLevel(log.DebugLevel)
	}

	l.SetColorProfile(termenv.ANSI256)
	if noColor {
		l.SetColorProfile(termenv.Ascii)
	}

	return l
}
