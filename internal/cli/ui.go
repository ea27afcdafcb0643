package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/licensetower/pkg/core/license"
	"github.com/matzehuels/licensetower/pkg/core/scan"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - links
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleLink    = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleHeader  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Padding(0, 1)
	styleCell    = lipgloss.NewStyle().Padding(0, 1)
	styleUnknown = lipgloss.NewStyle().Foreground(colorYellow).Padding(0, 1)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented secondary line.
func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(w io.Writer, key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(w, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// =============================================================================
// Reports
// =============================================================================

// printReport renders one scan result as a package table followed by a
// summary line and any adapter failures.
func printReport(w io.Writer, res *scan.Result) {
	fmt.Fprintln(w, StyleTitle.Render(res.ProjectPath))
	if len(res.PackageManagers) == 0 {
		printInfo(w, "No supported package manager detected")
		return
	}

	unknown := 0
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers("PACKAGE", "VERSION", "LICENSES", "MANAGER", "GROUPS")
	for _, p := range res.Packages {
		if !p.Licenses.HasKnown() {
			unknown++
		}
		t.Row(p.Name, p.Version, licenseNames(p.Licenses), strings.Join(p.Provenance, ","), strings.Join(p.Groups, ","))
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == -1:
			return styleHeader
		case col == 2 && row >= 0 && row < len(res.Packages) && !res.Packages[row].Licenses.HasKnown():
			return styleUnknown
		}
		return styleCell
	})
	fmt.Fprintln(w, t.Render())

	parts := []string{
		fmt.Sprintf("%d packages", len(res.Packages)),
		fmt.Sprintf("%d roots", len(res.Roots)),
		strings.Join(res.PackageManagers, ", "),
	}
	fmt.Fprintln(w, "  "+StyleDim.Render(strings.Join(parts, " · ")))
	if unknown > 0 {
		printWarning(w, "%d packages with unknown licenses", unknown)
	}
	for _, f := range res.Failures {
		printError(w, "%s %s: %s", f.Manager, f.Stage, f.Message)
	}
}

func licenseNames(s license.Set) string {
	return strings.Join(s.Names(), ", ")
}

// printLicense renders one corpus license.
func printLicense(w io.Writer, l *license.License) {
	fmt.Fprintln(w, StyleTitle.Render(l.Name))
	if l.URL != "" {
		printKeyValue(w, "url", StyleLink.Render(l.URL))
	}
	if len(l.Aliases) > 0 {
		printKeyValue(w, "aliases", strings.Join(l.Aliases, ", "))
	}
}
