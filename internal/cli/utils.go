// Package cli renders verification results for the ragcheck command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyperjump/ragcheck/internal/cases"
	"github.com/hyperjump/ragcheck/internal/storage"
	"github.com/hyperjump/ragcheck/internal/verify"
	"github.com/hyperjump/ragcheck/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a -output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (supported: text, json)", s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteResult writes a single verification result.
func WriteResult(w io.Writer, res verify.Result, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	writeResultText(w, res, "")
	return nil
}

func writeResultText(w io.Writer, res verify.Result, indent string) {
	fmt.Fprintf(w, "%sAccuracy:            %.4f\n", indent, res.Accuracy)
	fmt.Fprintf(w, "%sConsistency:         %.4f\n", indent, res.Consistency)
	fmt.Fprintf(w, "%sRelevance:           %.4f\n", indent, res.Relevance)
	fmt.Fprintf(w, "%sSemantic similarity: %.4f\n", indent, res.SemanticSimilarity)
	fmt.Fprintf(w, "%sConfidence:          %.4f\n", indent, res.Confidence)
	fmt.Fprintf(w, "%sOverall score:       %.4f\n", indent, res.OverallScore())
	if len(res.Issues) == 0 {
		fmt.Fprintf(w, "%sIssues: none\n", indent)
		return
	}
	fmt.Fprintf(w, "%sIssues:\n", indent)
	for _, issue := range res.Issues {
		fmt.Fprintf(w, "%s  - %s\n", indent, issue)
	}
}

type outcomeJSON struct {
	Case     string         `json:"case"`
	ID       string         `json:"id"`
	Path     string         `json:"path"`
	Passed   bool           `json:"passed"`
	RecordID string         `json:"record_id,omitempty"`
	Result   *verify.Result `json:"result,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Summary counts case outcomes.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Flagged int `json:"flagged"`
	Errors  int `json:"errors"`
}

// Summarize counts passed, flagged and failed outcomes.
func Summarize(outcomes []cases.Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			s.Errors++
		case len(o.Result.Issues) > 0:
			s.Flagged++
		default:
			s.Passed++
		}
	}
	return s
}

// WriteOutcomes writes case outcomes followed by a summary line (text) or a
// {"cases", "summary"} object (JSON).
func WriteOutcomes(w io.Writer, outcomes []cases.Outcome, format OutputFormat) error {
	summary := Summarize(outcomes)
	if format == OutputJSON {
		items := make([]outcomeJSON, 0, len(outcomes))
		for _, o := range outcomes {
			item := outcomeJSON{
				Case:     o.Case.Name,
				ID:       o.Case.ID,
				Path:     o.Case.Path,
				Passed:   o.Passed(),
				RecordID: o.RecordID,
			}
			if o.Err != nil {
				item.Error = o.Err.Error()
			} else {
				res := o.Result
				item.Result = &res
			}
			items = append(items, item)
		}
		return writeJSON(w, map[string]interface{}{"cases": items, "summary": summary})
	}

	for _, o := range outcomes {
		WriteOutcomeText(w, o)
	}
	fmt.Fprintf(w, "\n%d cases: %d passed, %d flagged, %d errors\n",
		summary.Total, summary.Passed, summary.Flagged, summary.Errors)
	return nil
}

// WriteOutcomeText writes one case outcome in text form.
func WriteOutcomeText(w io.Writer, o cases.Outcome) {
	switch {
	case o.Err != nil:
		fmt.Fprintf(w, "ERROR %s: %v\n", o.Case.Name, o.Err)
	case len(o.Result.Issues) > 0:
		fmt.Fprintf(w, "FLAG  %s (confidence %.4f, overall %.4f)\n", o.Case.Name, o.Result.Confidence, o.Result.OverallScore())
		for _, issue := range o.Result.Issues {
			fmt.Fprintf(w, "      - %s\n", issue)
		}
	default:
		fmt.Fprintf(w, "PASS  %s (confidence %.4f, overall %.4f)\n", o.Case.Name, o.Result.Confidence, o.Result.OverallScore())
	}
}

// WriteRecords writes a page of verification history.
func WriteRecords(w io.Writer, records []*storage.Record, total int64, format OutputFormat) error {
	if format == OutputJSON {
		if records == nil {
			records = []*storage.Record{}
		}
		return writeJSON(w, map[string]interface{}{"verifications": records, "total": total})
	}
	fmt.Fprintf(w, "Showing %d of %d verifications\n\n", len(records), total)
	for _, rec := range records {
		name := rec.CaseName
		if name == "" {
			name = utils.Truncate(rec.Context.Question, 40)
		}
		fmt.Fprintf(w, "%s  %s  %-6s  overall %.4f  issues %d  %s\n",
			rec.ID, rec.CreatedAt.Local().Format(time.DateTime), rec.Source,
			rec.Result.OverallScore(), len(rec.Result.Issues), name)
	}
	return nil
}

// WriteRecord writes one stored verification with its inputs.
func WriteRecord(w io.Writer, rec *storage.Record, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, rec)
	}
	fmt.Fprintf(w, "ID:       %s\n", rec.ID)
	if rec.CaseName != "" {
		fmt.Fprintf(w, "Case:     %s\n", rec.CaseName)
	}
	fmt.Fprintf(w, "Source:   %s\n", rec.Source)
	fmt.Fprintf(w, "Created:  %s\n", rec.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(w, "Question: %s\n", rec.Context.Question)
	fmt.Fprintf(w, "Response: %s\n", utils.Truncate(rec.Response, 200))
	fmt.Fprintf(w, "Documents: %d\n\n", len(rec.Context.RetrievedDocs))
	writeResultText(w, rec.Result, "")
	return nil
}
