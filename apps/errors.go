package apps

import "fmt"

// ArgumentError reports an invalid command line argument.
type ArgumentError struct {
	Arg string
	msg string
}

func NewArgumentError(arg, format string, a ...interface{}) *ArgumentError {
	return &ArgumentError{Arg: arg, msg: fmt.Sprintf(format, a...)}
}

func (err *ArgumentError) Error() string {
	return "--" + err.Arg + ": " + err.msg
}
