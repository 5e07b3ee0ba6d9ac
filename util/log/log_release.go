//go:build release

package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/dixieflatline76/imgedit/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logFile io.Writer

func init() {
	logDir, err := config.LogDir()
	if err != nil {
		log.Fatalf("Failed to resolve log directory: %v", err)
	}

	// Ensure the log directory exists
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}

	logFile = &lumberjack.Logger{
		Filename:   filepath.Join(logDir, config.AppName+config.LogExt),
		MaxSize:    10, // MB
		MaxBackups: 2,
		MaxAge:     28, // days
		Compress:   true,
	}
	log.SetOutput(logFile)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
}

// SetConsole mirrors the log file to w when enabled.
func SetConsole(w io.Writer, enabled bool) {
	if enabled {
		log.SetOutput(io.MultiWriter(logFile, w))
	} else {
		log.SetOutput(logFile)
	}
}

// Print calls the standard log.Print()
func Print(v ...interface{}) {
	log.Output(2, fmt.Sprint(v...))
}

// Printf calls the standard log.Printf()
func Printf(format string, v ...interface{}) {
	log.Output(2, fmt.Sprintf(format, v...))
}

// Println calls the standard log.Println()
func Println(v ...interface{}) {
	log.Output(2, fmt.Sprintln(v...))
}

// Fatal calls the standard log.Fatal()
func Fatal(v ...interface{}) {
	log.Output(2, fmt.Sprint(v...))
	os.Exit(1)
}

// Fatalf calls the standard log.Fatalf()
func Fatalf(format string, v ...interface{}) {
	log.Output(2, fmt.Sprintf(format, v...))
	os.Exit(1)
}

// Fatalln calls the standard log.Fatalln()
func Fatalln(v ...interface{}) {
	log.Output(2, fmt.Sprintln(v...))
	os.Exit(1)
}

// Debug is a no-op in release builds
func Debug(v ...interface{}) {}

// Debugf is a no-op in release builds
func Debugf(format string, v ...interface{}) {}
