package cli

import (
	"io"
	"os"
	"runtime"

	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogTimeFormat is the timestamp layout of console logs.
const LogTimeFormat = "2006-01-02T15:04:05.000"

// setupLogging points the global logger at stderr. Reports go to stdout,
// so logs never mix with JSON or YAML output.
func setupLogging(debug, jsonLogs, noColor bool) {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if jsonLogs {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}

	var out io.Writer = os.Stderr
	if runtime.GOOS == "windows" {
		out = colorable.NewColorableStderr()
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, NoColor: noColor, TimeFormat: LogTimeFormat})
}
