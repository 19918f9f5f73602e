package console

import (
	"fmt"
	"io"
	"os"
)

const PictoStop = "🚫"

// Indent lines up detail lines with the text after a status tag.
const Indent = "           "

var writer io.Writer
var errWriter io.Writer

// Brief suppresses everything but the requested data.
var Brief bool

func init() {
	writer = os.Stdout
	errWriter = os.Stderr
}

func SetOutput(w, errw io.Writer) {
	writer = w
	errWriter = errw
}

func Output() io.Writer {
	return writer
}

func Error(msg string) {
	_, _ = fmt.Fprintf(errWriter, "%s: %s\n", Red("ERROR"), msg)
}

func Errorf(msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(errWriter, "%s: %s\n", Red("ERROR"), fmt.Sprintf(msg, args...))
}

func Warnf(msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(errWriter, "%s: %s\n", Yellow("WARN"), fmt.Sprintf(msg, args...))
}

func Info(msg string) {
	if Brief {
		return
	}
	_, _ = fmt.Fprintf(writer, "%s %s\n", White("..."), msg)
}

func Infof(msg string, args ...interface{}) {
	Info(fmt.Sprintf(msg, args...))
}

// Okf reports a completed step.
func Okf(msg string, args ...interface{}) {
	if Brief {
		return
	}
	_, _ = fmt.Fprintf(writer, "%s %s\n", Green("[ OKAY ]"), fmt.Sprintf(msg, args...))
}

// Detailf prints an indented line under the last status message.
func Detailf(msg string, args ...interface{}) {
	if Brief {
		return
	}
	_, _ = fmt.Fprintf(writer, "%s%s\n", Indent, Faint(fmt.Sprintf(msg, args...)))
}

func PInfof(picto, msg string, args ...interface{}) {
	if Brief {
		return
	}
	_, _ = fmt.Fprintf(writer, "%s %s\n", picto, fmt.Sprintf(msg, args...))
}

func Print(msg string) {
	_, _ = fmt.Fprintln(writer, msg)
}

func Printf(msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(writer, msg, args...)
}
