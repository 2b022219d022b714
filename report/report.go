package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/envops-io/envops/health"
)

// statusOrder lists statuses in presentation order: the most actionable
// information surfaces first.
var statusOrder = []health.Status{
	health.StatusUnhealthy,
	health.StatusDegraded,
	health.StatusUnknown,
	health.StatusHealthy,
}

// Entry is one check's line in a report.
type Entry struct {
	Check   string `json:"check"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Section groups a report's entries by status.
type Section struct {
	Status  string  `json:"status"`
	Entries []Entry `json:"entries"`
}

// Report is the formatted view of a set of health check results. It is a
// pure function of its input: generating a report twice from the same
// result set yields identical output.
type Report struct {
	Overall  string    `json:"overall"`
	Total    int       `json:"total"`
	Sections []Section `json:"sections,omitempty"`
}

// Generate groups results by status, computes the overall verdict, and
// orders entries unhealthy first, then degraded, unknown, healthy. Within a
// section entries are sorted by check name.
func Generate(results []health.Result) Report {
	byStatus := make(map[health.Status][]health.Result)
	overall := health.StatusHealthy
	for _, r := range results {
		byStatus[r.Status] = append(byStatus[r.Status], r)
		overall = health.WorstOf(overall, r.Status)
	}
	if len(results) == 0 {
		overall = health.StatusUnknown
	}

	rep := Report{
		Overall: overall.String(),
		Total:   len(results),
	}

	for _, status := range statusOrder {
		group := byStatus[status]
		if len(group) == 0 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			return group[i].Check < group[j].Check
		})

		section := Section{Status: status.String(), Entries: make([]Entry, 0, len(group))}
		for _, r := range group {
			entry := Entry{
				Check:   r.Check,
				Status:  r.Status.String(),
				Message: r.Message,
			}
			if r.Latency > 0 {
				entry.Latency = r.Latency.String()
			}
			if r.Err != nil {
				entry.Error = r.Err.Error()
			}
			section.Entries = append(section.Entries, entry)
		}
		rep.Sections = append(rep.Sections, section)
	}

	return rep
}

// FromSummary generates a report from a health service summary.
func FromSummary(summary health.Summary) Report {
	return Generate(summary.Results)
}

// Render formats the report as text. The output is deterministic:
// identical input always yields identical output.
func (r Report) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "overall: %s (%d checks)\n", r.Overall, r.Total)

	for _, section := range r.Sections {
		fmt.Fprintf(&b, "\n%s (%d):\n", section.Status, len(section.Entries))
		for _, entry := range section.Entries {
			fmt.Fprintf(&b, "  %-24s %s", entry.Check, entry.Status)
			if entry.Message != "" {
				fmt.Fprintf(&b, "  %s", entry.Message)
			}
			if entry.Latency != "" {
				fmt.Fprintf(&b, "  (%s)", entry.Latency)
			}
			b.WriteByte('\n')
		}
	}

	return b.String()
}

// JSON renders the report as indented JSON for machine consumers.
func (r Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
