package console

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// ExitFailure is the only failure status the tool reports.
const ExitFailure = 1

func Exit(code int, msg string, args ...interface{}) cli.ExitCoder {
	return cli.Exit(fmt.Sprintf(msg, args...), code)
}

// Fail is Exit with ExitFailure.
func Fail(msg string, args ...interface{}) cli.ExitCoder {
	return Exit(ExitFailure, msg, args...)
}
