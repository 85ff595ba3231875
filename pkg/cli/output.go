package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chromedash/chromedash/pkg/types"
)

// outputJSON controls whether commands should output JSON instead of styled text
var outputJSON bool

// SetJSONOutput sets the JSON output mode
func SetJSONOutput(enabled bool) {
	outputJSON = enabled
}

// IsJSONOutput returns true if JSON output mode is enabled
func IsJSONOutput() bool {
	return outputJSON
}

// PrintJSON outputs data as JSON if JSON mode is enabled, returns true if it did
func PrintJSON(data interface{}) bool {
	if !outputJSON {
		return false
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(data)
	return true
}

func PrintSuccess(msg string) {
	fmt.Printf("  %s %s\n", SuccessStyle.Render(SymbolSuccess), msg)
}

func PrintSuccessf(format string, args ...interface{}) {
	PrintSuccess(fmt.Sprintf(format, args...))
}

// PrintSuccessWithValue prints a success message with a right-aligned value
func PrintSuccessWithValue(msg, value string) {
	fmt.Printf("  %s %-40s %s\n", SuccessStyle.Render(SymbolSuccess), msg, DimStyle.Render(value))
}

func PrintErrorMsg(msg string) {
	fmt.Printf("  %s %s\n", ErrorStyle.Render(SymbolError), ErrorStyle.Render(msg))
}

func PrintWarning(w io.Writer, msg string) {
	fmt.Fprintf(w, "  %s %s\n", WarningStyle.Render(SymbolWarning), WarningStyle.Render(msg))
}

func PrintInfo(msg string) {
	fmt.Printf("  %s %s\n", InfoStyle.Render(SymbolInfo), msg)
}

func PrintHint(msg string) {
	fmt.Printf("\n  %s\n", HintStyle.Render(msg))
}

// PrintSuggestions prints a list of suggestions
func PrintSuggestions(title string, suggestions []string) {
	fmt.Println()
	fmt.Printf("  %s\n", DimStyle.Render(title))
	for _, s := range suggestions {
		fmt.Printf("    %s %s\n", DimStyle.Render(SymbolBullet), s)
	}
}

// PrintKeyValue prints a key-value pair with consistent alignment
func PrintKeyValue(key, value string) {
	fmt.Printf("  %s %s\n", KeyStyle.Render(key), value)
}

// Table represents a styled table
type Table struct {
	Headers []string
	Rows    [][]string
	Widths  []int
}

// NewTable creates a new table with the given headers
func NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	return &Table{
		Headers: headers,
		Widths:  widths,
	}
}

// AddRow adds a row, padding or truncating it to the header count
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.Headers))
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
			if len(cells[i]) > t.Widths[i] {
				t.Widths[i] = len(cells[i])
			}
		}
	}
	t.Rows = append(t.Rows, row)
}

// Fprint renders the table to w
func (t *Table) Fprint(w io.Writer) {
	if len(t.Rows) == 0 {
		return
	}

	fmt.Fprint(w, "  ")
	for i, h := range t.Headers {
		fmt.Fprint(w, TableHeaderStyle.Width(t.Widths[i]+2).Render(h))
	}
	fmt.Fprintln(w)

	fmt.Fprint(w, "  ")
	for i := range t.Headers {
		fmt.Fprint(w, DimStyle.Render(strings.Repeat("─", t.Widths[i])), "  ")
	}
	fmt.Fprintln(w)

	for _, row := range t.Rows {
		fmt.Fprint(w, "  ")
		for i, cell := range row {
			fmt.Fprint(w, TableCellStyle.Width(t.Widths[i]+2).Render(cell))
		}
		fmt.Fprintln(w)
	}
}

func (t *Table) Print() {
	t.Fprint(os.Stdout)
}

// Truncate truncates a string to maxLen, adding "..." if needed
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// FeatureTable lays out features, marking the starred ones.
func FeatureTable(features []*types.Feature, starred func(int64) bool) *Table {
	t := NewTable("", "ID", "NAME", "CATEGORY", "MILESTONE", "STATUS")
	for _, f := range features {
		mark := ""
		if starred != nil && starred(f.Id) {
			mark = SymbolStar
		}
		milestone := ""
		if f.Milestone > 0 {
			milestone = strconv.Itoa(f.Milestone)
		}
		t.AddRow(mark, strconv.FormatInt(f.Id, 10), Truncate(f.Name, 48), f.Category, milestone, f.Status)
	}
	return t
}

// PrintConnectionError prints a styled connection error with suggestions
func PrintConnectionError(addr string, err error) {
	fmt.Println()
	PrintErrorMsg("Cannot connect to gateway")
	fmt.Println()
	fmt.Printf("  The gateway at %s is not responding.\n", CodeStyle.Render(addr))

	PrintSuggestions("Suggestions:", []string{
		"Browse a local catalog: " + CodeStyle.Render("chromedash browse --local features.yaml"),
		"Verify the gateway is running at the specified address",
		"Check your " + CodeStyle.Render("CHROMEDASH_GATEWAY") + " environment variable",
	})
	fmt.Println()
}
