// Package ui renders screening progress and outcomes on the terminal.
package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"

	"github.com/joseph-ayodele/investor-screening/constants"
)

var (
	green  = color.New(color.FgGreen, color.Bold)
	red    = color.New(color.FgRed, color.Bold)
	yellow = color.New(color.FgYellow)
	bold   = color.New(color.Bold)
)

// Init disables colors when noColor is set.
func Init(noColor bool) {
	if noColor {
		color.NoColor = true
	}
}

// Spinner shows the current pipeline step while a run is in flight.
type Spinner struct {
	s *spinner.Spinner
}

func NewSpinner(w io.Writer, message string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message
	return &Spinner{s: s}
}

func (s *Spinner) Start() { s.s.Start() }

func (s *Spinner) Stop() { s.s.Stop() }

// Update replaces the spinner message.
func (s *Spinner) Update(message string) {
	s.s.Lock()
	s.s.Suffix = " " + message
	s.s.Unlock()
}

// Status renders a compliance status in its outcome color.
func Status(st constants.ComplianceStatus) string {
	switch st {
	case constants.ComplianceApproved:
		return green.Sprint(string(st))
	case constants.ComplianceFlagged:
		return red.Sprint(string(st))
	default:
		return yellow.Sprint(string(st))
	}
}

// Field prints a "label: value" line with the label in bold.
func Field(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%s %s\n", bold.Sprint(label+":"), value)
}

func Success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", green.Sprint("✓"), fmt.Sprintf(format, args...))
}

func Error(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", red.Sprint("✗"), fmt.Sprintf(format, args...))
}

func Warning(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", yellow.Sprint("⚠"), fmt.Sprintf(format, args...))
}
