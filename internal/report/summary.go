// Package report renders human-readable summaries of discovery runs and
// mapping documents for the CLI.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/keymapio/keymap/internal/discovery"
	"github.com/keymapio/keymap/internal/mapping"
	"github.com/keymapio/keymap/internal/verifier"
)

// pad right-fills a cell to the target display width. Metric keys can carry
// non-ASCII characters, so alignment goes by rune width, not byte length.
func pad(s string, width int) string {
	return s + strings.Repeat(" ", width-runewidth.StringWidth(s))
}

func table(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	var line []string
	for i, h := range headers {
		line = append(line, pad(h, widths[i]))
	}
	fmt.Fprintln(w, strings.TrimRight(strings.Join(line, "  "), " "))

	var rule []string
	for _, width := range widths {
		rule = append(rule, strings.Repeat("-", width))
	}
	fmt.Fprintln(w, strings.Join(rule, "  "))

	for _, row := range rows {
		line = line[:0]
		for i, cell := range row {
			line = append(line, pad(cell, widths[i]))
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(line, "  "), " "))
	}
}

// WriteRunSummary prints the coverage statistics of a discovery run.
func WriteRunSummary(w io.Writer, res *discovery.RunResult) {
	fmt.Fprintf(w, "\n=== Discovery Complete ===\n")
	fmt.Fprintf(w, "Days: %s\n", strings.Join(res.Days, ", "))
	fmt.Fprintf(w, "Tenants: %d\n", res.Stats.TenantsSeen)
	fmt.Fprintf(w, "Windows: %d/%d succeeded\n", res.Stats.WindowsSucceeded, res.Stats.WindowsAttempted)
	fmt.Fprintf(w, "Duration: %s\n", res.Stats.Duration.Round(10*time.Millisecond))

	if res.Stats.WindowsSucceeded < res.Stats.WindowsAttempted {
		fmt.Fprint(w, color.Warn.Sprintf("Partial coverage: %d window(s) failed; key sets may undercount\n",
			res.Stats.WindowsAttempted-res.Stats.WindowsSucceeded))
	}
}

// WriteMappingSummary prints one row per tenant plus the global column
// widths of a mapping document.
func WriteMappingSummary(w io.Writer, doc *mapping.Document) {
	fmt.Fprintf(w, "\n=== Mapping Summary ===\n")
	fmt.Fprintf(w, "Source table: %s\n", doc.Metadata.SourceTable)
	fmt.Fprintf(w, "Generated at: %s\n", doc.Metadata.GeneratedAt)
	fmt.Fprintf(w, "Dates: %s\n\n", strings.Join(doc.Metadata.Dates, ", "))

	rows := make([][]string, 0, len(doc.Customers))
	for _, id := range doc.TenantIDs() {
		c, _ := doc.Customer(id)
		rows = append(rows, []string{
			strconv.FormatInt(id, 10),
			strconv.Itoa(c.IntColumns),
			strconv.Itoa(c.FloatColumns),
		})
	}
	table(w, []string{"Tenant", "Int Keys", "Float Keys"}, rows)

	fmt.Fprintf(w, "\nTable width: %d int, %d float columns\n",
		doc.MaxColumns.IntColumns, doc.MaxColumns.FloatColumns)
}

// WriteTenantDetail prints one tenant's full key-to-column assignment.
func WriteTenantDetail(w io.Writer, tenantID int64, c *mapping.Customer) {
	fmt.Fprintf(w, "\n=== Tenant %d ===\n", tenantID)

	rows := make([][]string, 0, len(c.IntKeys)+len(c.FloatKeys))
	for _, key := range c.IntKeys {
		rows = append(rows, []string{key, c.IntMapping[key]})
	}
	for _, key := range c.FloatKeys {
		rows = append(rows, []string{key, c.FloatMapping[key]})
	}
	table(w, []string{"Key", "Column"}, rows)

	fmt.Fprintf(w, "\nTotal: %d int, %d float\n", c.IntColumns, c.FloatColumns)
}

// WriteVerifyResult prints the invariant check outcomes, failures first.
func WriteVerifyResult(w io.Writer, res *verifier.Result) {
	fmt.Fprintf(w, "\n=== Mapping Verification ===\n")

	for _, check := range res.Checks {
		if check.OK {
			continue
		}
		fmt.Fprint(w, color.Danger.Sprintf("FAIL  [%s] %s: %s\n", check.Tenant, check.Check, check.Message))
	}

	if res.Ok() {
		fmt.Fprint(w, color.Success.Sprintf("All %d checks passed\n", res.Passed))
	} else {
		fmt.Fprint(w, color.Danger.Sprintf("%d of %d checks failed\n", res.Failed, res.Passed+res.Failed))
	}
}

// WriteDiff prints keys whose column assignment moved between two documents.
func WriteDiff(w io.Writer, moves []verifier.Reassignment) {
	fmt.Fprintf(w, "\n=== Assignment Diff ===\n")
	if len(moves) == 0 {
		fmt.Fprint(w, color.Success.Sprint("No column reassignments\n"))
		return
	}

	rows := make([][]string, 0, len(moves))
	for _, m := range moves {
		rows = append(rows, []string{m.Tenant, m.Key, m.OldColumn, m.NewColumn})
	}
	table(w, []string{"Tenant", "Key", "Old", "New"}, rows)

	fmt.Fprint(w, color.Warn.Sprintf("\n%d key(s) reassigned; rows written under the old numbering are stale\n", len(moves)))
}
