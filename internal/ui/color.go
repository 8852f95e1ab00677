// Package ui provides colored console output.
package ui

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/fatih/color"
)

var (
	// Colors
	Red    = color.New(color.FgRed)
	Green  = color.New(color.FgGreen)
	Yellow = color.New(color.FgYellow)
	Blue   = color.New(color.FgBlue)
	Cyan   = color.New(color.FgCyan)
	Gray   = color.New(color.FgHiBlack)
	Bold   = color.New(color.Bold)
)

// Diagnostics is where Debug output goes. Kept off stdout so rendered
// documents can be piped.
var Diagnostics io.Writer = os.Stderr

var verbose atomic.Bool

// SetVerbose enables Debug output.
func SetVerbose(v bool) {
	verbose.Store(v)
}

// Success prints a green success message with checkmark.
func Success(format string, args ...any) {
	Green.Printf("✓ "+format+"\n", args...)
}

// Error prints a red error message with X.
func Error(format string, args ...any) {
	Red.Printf("✗ "+format+"\n", args...)
}

// Warning prints a yellow warning message.
func Warning(format string, args ...any) {
	Yellow.Printf("⚠ "+format+"\n", args...)
}

// Info prints a blue info message.
func Info(format string, args ...any) {
	Blue.Printf(format+"\n", args...)
}

// Step prints a numbered step in cyan.
func Step(n int, format string, args ...any) {
	Cyan.Printf("[%d] ", n)
	fmt.Printf(format+"\n", args...)
}

// Header prints a bold header.
func Header(format string, args ...any) {
	Bold.Printf(format+"\n", args...)
}

// Item prints an indented list entry.
func Item(format string, args ...any) {
	fmt.Printf("  • "+format+"\n", args...)
}

// SubItem prints a gray entry nested under an Item, e.g. one schema
// violation of a failed declaration.
func SubItem(format string, args ...any) {
	Gray.Printf("      - "+format+"\n", args...)
}

// Debug prints a gray message to Diagnostics when verbose output is on.
func Debug(format string, args ...any) {
	if !verbose.Load() {
		return
	}
	Gray.Fprintf(Diagnostics, "· "+format+"\n", args...)
}
