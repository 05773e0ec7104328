package reporting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"defi-cohort-lab/internal/domain"
	"defi-cohort-lab/internal/retention"
	"defi-cohort-lab/internal/tables"
)

// maxMatrixWeeks caps the retention matrix width in the report.
const maxMatrixWeeks = 12

// RenderMarkdown renders the run summary and retention matrix as Markdown.
func RenderMarkdown(run *domain.PipelineRun, snap *domain.Snapshot) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Cohort Retention Report\n\n")
	sb.WriteString(fmt.Sprintf("Run: %s | Status: %s\n\n", run.ID, run.Status))
	sb.WriteString(fmt.Sprintf("Started: %s\n\n", run.StartedAt.UTC().Format(time.RFC3339)))
	if run.DataVersion != "" {
		sb.WriteString(fmt.Sprintf("Data version: `%s`\n\n", run.DataVersion))
	}

	// Row counts
	sb.WriteString("## Row Counts\n\n")
	sb.WriteString("| Table | Rows |\n")
	sb.WriteString("|-------|------|\n")
	for _, name := range sortedKeys(run.InputRows) {
		sb.WriteString(fmt.Sprintf("| raw.%s | %d |\n", name, run.InputRows[name]))
	}
	counts := snap.RowCounts()
	for _, name := range tables.Names {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", name, counts[name]))
	}
	sb.WriteString("\n")

	// Retention matrix
	sb.WriteString("## Retention Matrix\n\n")
	cohorts, maxOffset, rates := retention.Matrix(snap.Retention)
	if len(cohorts) == 0 {
		sb.WriteString("No retention data available.\n\n")
	} else {
		if maxOffset > maxMatrixWeeks {
			maxOffset = maxMatrixWeeks
		}
		sb.WriteString("| Cohort |")
		for w := 0; w <= maxOffset; w++ {
			sb.WriteString(fmt.Sprintf(" W%d |", w))
		}
		sb.WriteString("\n|--------|")
		for w := 0; w <= maxOffset; w++ {
			sb.WriteString("-----|")
		}
		sb.WriteString("\n")
		for _, c := range cohorts {
			sb.WriteString("| " + c + " |")
			for w := 0; w <= maxOffset; w++ {
				rate, ok := rates[c][w]
				if !ok || rate == nil {
					sb.WriteString(" - |")
					continue
				}
				sb.WriteString(fmt.Sprintf(" %.1f%% |", *rate*100))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	// Revenue by protocol
	sb.WriteString("## Estimated Revenue\n\n")
	revenue := make(map[string]float64)
	for _, r := range snap.Revenue {
		revenue[r.ProtocolName] += r.EstimatedRevenueUSD
	}
	if len(revenue) == 0 {
		sb.WriteString("No revenue data available.\n\n")
	} else {
		sb.WriteString("| Protocol | Revenue (USD) |\n")
		sb.WriteString("|----------|---------------|\n")
		for _, name := range sortedKeys(revenue) {
			sb.WriteString(fmt.Sprintf("| %s | %.2f |\n", name, revenue[name]))
		}
		sb.WriteString("\n")
	}

	// Attribution by source
	sb.WriteString("## Revenue by Acquisition Source\n\n")
	bySource := make(map[string]float64)
	for _, a := range snap.Attribution {
		if a.AttributedRevenueUSD != nil {
			bySource[a.AcquisitionSource] += *a.AttributedRevenueUSD
		}
	}
	if len(bySource) == 0 {
		sb.WriteString("No attribution data available.\n")
	} else {
		sb.WriteString("| Source | Attributed (USD) |\n")
		sb.WriteString("|--------|------------------|\n")
		for _, src := range sortedKeys(bySource) {
			sb.WriteString(fmt.Sprintf("| %s | %.2f |\n", src, bySource[src]))
		}
	}

	return sb.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
