package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Color modes accepted by ColorEnabled.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Styles holds the color formatters used by human output.
type Styles struct {
	Heading *color.Color
	Name    *color.Color
	Good    *color.Color
	Fair    *color.Color
	Poor    *color.Color
	Muted   *color.Color
}

// NewStyles creates color formatters. enabled=false yields plain text.
func NewStyles(enabled bool) *Styles {
	s := &Styles{
		Heading: color.New(color.Bold),
		Name:    color.New(color.FgHiWhite),
		Good:    color.New(color.FgHiGreen),
		Fair:    color.New(color.FgYellow),
		Poor:    color.New(color.FgHiRed),
		Muted:   color.New(color.FgHiBlack),
	}

	// Set explicitly so the global color.NoColor does not apply.
	for _, c := range []*color.Color{s.Heading, s.Name, s.Good, s.Fair, s.Poor, s.Muted} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return s
}

// percent picks the style for a coverage percentage.
func (s *Styles) percent(p float64) *color.Color {
	switch {
	case p >= 80:
		return s.Good
	case p >= 50:
		return s.Fair
	default:
		return s.Poor
	}
}

// ColorEnabled resolves a --color mode. In auto mode colors are used when
// out is a terminal and NO_COLOR is unset.
func ColorEnabled(mode string, out *os.File) (bool, error) {
	switch mode {
	case ColorAlways:
		return true, nil
	case ColorNever:
		return false, nil
	case ColorAuto, "":
		if out == nil || os.Getenv("NO_COLOR") != "" {
			return false, nil
		}
		return term.IsTerminal(int(out.Fd())), nil
	default:
		return false, fmt.Errorf("unknown color mode %q (want auto, always or never)", mode)
	}
}

// WriteHuman prints a table of per-file statistics followed by the total.
func (sum *Summary) WriteHuman(w io.Writer, s *Styles) error {
	width := len("File")
	for _, f := range sum.Files {
		width = max(width, len(f.Filename))
	}
	width = max(width, len(sum.Total.Filename))

	header := fmt.Sprintf("%-*s %7s %7s %7s %7s %8s", width, "File", "Lines", "Hit", "Partial", "Missed", "Cover")
	if _, err := fmt.Fprintln(w, s.Heading.Sprint(header)); err != nil {
		return err
	}

	row := func(f FileStats, name *color.Color) error {
		pct := fmt.Sprintf("%7.2f%%", f.Percent())
		_, err := fmt.Fprintf(w, "%s %7d %7d %7d %7d %s\n",
			name.Sprintf("%-*s", width, f.Filename),
			f.Lines, f.Hit, f.Partial, f.Missed,
			s.percent(f.Percent()).Sprint(pct))
		return err
	}

	for _, f := range sum.Files {
		if err := row(f, s.Name); err != nil {
			return err
		}
	}
	if len(sum.Files) == 0 {
		if _, err := fmt.Fprintln(w, s.Muted.Sprint("(no files)")); err != nil {
			return err
		}
	}
	return row(sum.Total, s.Heading)
}

// WriteJSON prints the summary as indented JSON.
func (sum *Summary) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(sum)
}
