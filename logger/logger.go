package logger

import (
	"log"
	"os"
)

var (
	// Info writes to stdout.
	Info *log.Logger

	// Error writes to stderr.
	Error *log.Logger
)

func init() {
	Info = log.New(os.Stdout, "", log.LstdFlags)
	Error = log.New(os.Stderr, "", log.LstdFlags)
}

// Println writes an info line.
func Println(v ...interface{}) {
	Info.Println(v...)
}

// Printf writes a formatted info line.
func Printf(format string, v ...interface{}) {
	Info.Printf(format, v...)
}

// Errorf writes a formatted error line.
func Errorf(format string, v ...interface{}) {
	Error.Printf(format, v...)
}

// Fatalf writes a formatted error line and exits.
func Fatalf(format string, v ...interface{}) {
	Error.Fatalf(format, v...)
}
