package lib

import (
	"io"
	"os"
	"runtime"

	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	LogTimeFormat = "2006-01-02T15:04:05.000"
)

func consoleWriter(noColor bool) zerolog.ConsoleWriter {
	if runtime.GOOS == "windows" {
		return zerolog.ConsoleWriter{Out: colorable.NewColorableStderr(), NoColor: noColor, TimeFormat: LogTimeFormat}
	}
	return zerolog.ConsoleWriter{Out: os.Stderr, NoColor: noColor, TimeFormat: LogTimeFormat}
}

// SetLogLevel switches the global level between debug and info
func SetLogLevel(debug bool) {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// ZeroConsoleLog sets up pretty console logging, or plain JSON lines when pretty is false.
// Logs go to stderr so that findings printed to stdout can be piped.
func ZeroConsoleLog(pretty bool) {
	if pretty {
		log.Logger = log.Output(consoleWriter(false))
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// ZeroConsoleAndFileLog logs both to the console and appends JSON lines to filename
func ZeroConsoleAndFileLog(filename string, pretty bool) error {
	logFile, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	var writers []io.Writer
	writers = append(writers, logFile)
	if pretty {
		writers = append(writers, consoleWriter(false))
	} else {
		writers = append(writers, os.Stderr)
	}
	mw := io.MultiWriter(writers...)

	log.Logger = zerolog.New(mw).With().Timestamp().Logger()
	return nil
}
