package results

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/tailorhire/internal/types"
	"github.com/pmezard/go-difflib/difflib"
)

// Column titles of the comparison view.
const (
	LeftTitle  = "Original Text"
	RightTitle = "Optimized JSON Content"
)

// Op classifies a row of the comparison.
type Op string

// Row operations
const (
	OpEqual   Op = "equal"
	OpDelete  Op = "delete"
	OpInsert  Op = "insert"
	OpReplace Op = "replace"
)

// Row is one line of the two-column comparison. A line number of 0 means the
// side is empty for this row.
type Row struct {
	Op      Op
	LeftNo  int
	Left    string
	RightNo int
	Right   string
}

// Diff is a two-column comparison of the original resume text against the
// pretty-printed optimized resume JSON.
type Diff struct {
	LeftTitle  string
	RightTitle string
	Rows       []Row
	Changed    int
}

// Compare builds the comparison. It is purely presentational: the line diff
// comes from difflib's sequence matcher.
func Compare(result *types.OptimizationResult) (*Diff, error) {
	if result == nil {
		return nil, fmt.Errorf("no result to compare")
	}

	optimized, err := json.MarshalIndent(result.OptimizedResumeJSON, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize optimized resume: %w", err)
	}

	left := splitLines(result.OriginalResumeText)
	right := splitLines(string(optimized))

	diff := &Diff{LeftTitle: LeftTitle, RightTitle: RightTitle}
	matcher := difflib.NewMatcher(left, right)
	for _, oc := range matcher.GetOpCodes() {
		switch oc.Tag {
		case 'e':
			for i, j := oc.I1, oc.J1; i < oc.I2; i, j = i+1, j+1 {
				diff.Rows = append(diff.Rows, Row{Op: OpEqual, LeftNo: i + 1, Left: left[i], RightNo: j + 1, Right: right[j]})
			}
		case 'd':
			for i := oc.I1; i < oc.I2; i++ {
				diff.Rows = append(diff.Rows, Row{Op: OpDelete, LeftNo: i + 1, Left: left[i]})
				diff.Changed++
			}
		case 'i':
			for j := oc.J1; j < oc.J2; j++ {
				diff.Rows = append(diff.Rows, Row{Op: OpInsert, RightNo: j + 1, Right: right[j]})
				diff.Changed++
			}
		case 'r':
			n := max(oc.I2-oc.I1, oc.J2-oc.J1)
			for k := 0; k < n; k++ {
				row := Row{Op: OpReplace}
				if i := oc.I1 + k; i < oc.I2 {
					row.LeftNo, row.Left = i+1, left[i]
				}
				if j := oc.J1 + k; j < oc.J2 {
					row.RightNo, row.Right = j+1, right[j]
				}
				diff.Rows = append(diff.Rows, row)
				diff.Changed++
			}
		}
	}

	return diff, nil
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
