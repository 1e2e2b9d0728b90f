// Package report renders end-of-run summaries as terminal tables.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/snapetech/iptvmirror/internal/epg"
	"github.com/snapetech/iptvmirror/internal/health"
	"github.com/snapetech/iptvmirror/internal/proxypool"
	"github.com/snapetech/iptvmirror/internal/safeurl"
	"github.com/snapetech/iptvmirror/internal/validate"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// Table is a header + rows table; Markdown switches to a markdown border for CI logs.
type Table struct {
	Headers  []string
	Rows     [][]string
	Markdown bool
}

func NewTable(headers ...string) *Table {
	return &Table{Headers: headers}
}

func (t *Table) Row(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

func (t *Table) String() string {
	tb := table.New().Headers(t.Headers...).StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return lipgloss.NewStyle().Bold(true).Align(lipgloss.Center).Padding(0, 1)
		}
		return lipgloss.NewStyle().Padding(0, 1)
	})
	for _, r := range t.Rows {
		tb.Row(r...)
	}
	if t.Markdown {
		tb.Border(lipgloss.MarkdownBorder())
	}
	return tb.String()
}

// KeyValues renders a two-column summary.
func KeyValues(pairs ...[2]string) *Table {
	t := NewTable("", "")
	for _, p := range pairs {
		t.Row(p[0], p[1])
	}
	return t
}

// Validation summarizes a validate run per mirror host.
func Validation(rep validate.Report) *Table {
	type counts struct{ valid, invalid, skipped, errors, cached int }
	byHost := make(map[string]*counts)
	for _, r := range rep.Results {
		h := safeurl.Host(r.URL)
		c := byHost[h]
		if c == nil {
			c = &counts{}
			byHost[h] = c
		}
		switch {
		case r.Outcome == validate.OutcomeCached:
			c.cached++
			if r.Valid {
				c.valid++
			}
		case r.Outcome == validate.OutcomeValid:
			c.valid++
		case r.Outcome == validate.OutcomeInvalid:
			c.invalid++
		case r.Outcome == validate.OutcomeSkipped:
			c.skipped++
		default:
			c.errors++
		}
	}
	hosts := make([]string, 0, len(byHost))
	for h := range byHost {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	t := NewTable("Host", "Valid", "Invalid", "Skipped", "Errors", "Cached")
	for _, h := range hosts {
		c := byHost[h]
		t.Row(h, okStyle.Render(strconv.Itoa(c.valid)), strconv.Itoa(c.invalid),
			warnStyle.Render(strconv.Itoa(c.skipped)), failStyle.Render(strconv.Itoa(c.errors)), strconv.Itoa(c.cached))
	}
	t.Row("total", okStyle.Render(strconv.Itoa(len(rep.Valid))), strconv.Itoa(rep.Invalid),
		warnStyle.Render(strconv.Itoa(rep.Skipped)), failStyle.Render(strconv.Itoa(rep.Errors)), strconv.Itoa(rep.Cached))
	return t
}

// Downloads lists EPG feed results.
func Downloads(results []epg.DownloadResult) *Table {
	t := NewTable("File", "Result", "Size", "Took")
	for _, r := range results {
		status := okStyle.Render("ok")
		if r.Gzip {
			status = okStyle.Render("ok (gz)")
		}
		if r.Err != nil {
			status = failStyle.Render(r.Err.Error())
		}
		t.Row(r.Source.Filename, status, humanBytes(r.Bytes), r.Took.Round(time.Millisecond).String())
	}
	return t
}

// Proxies lists proxy check results.
func Proxies(results []proxypool.CheckResult) *Table {
	t := NewTable("Proxy", "Result", "Status", "Latency")
	for _, r := range results {
		res := okStyle.Render("ok")
		if !r.OK {
			res = failStyle.Render("failed")
			if r.Err != nil {
				res = failStyle.Render(r.Err.Error())
			}
		}
		code := "-"
		if r.StatusCode > 0 {
			code = strconv.Itoa(r.StatusCode)
		}
		t.Row(safeurl.Redact(r.Proxy), res, code, r.Latency.Round(time.Millisecond).String())
	}
	return t
}

// Endpoints lists upstream health results.
func Endpoints(results []health.Result) *Table {
	t := NewTable("Endpoint", "URL", "Result", "Latency")
	for _, r := range results {
		res := okStyle.Render("ok")
		if !r.OK() {
			res = failStyle.Render(r.Err.Error())
		}
		t.Row(r.Endpoint.Name, r.Endpoint.URL, res, r.Latency.Round(time.Millisecond).String())
	}
	return t
}

func humanBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
