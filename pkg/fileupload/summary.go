package fileupload

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pyneda/sukyan-fileupload/lib"
)

// VectorSummary is the printable description of a vector
type VectorSummary struct {
	Name      string   `json:"name" yaml:"name"`
	Title     string   `json:"title" yaml:"title"`
	Severity  string   `json:"severity" yaml:"severity"`
	CWE       int      `json:"cwe" yaml:"cwe"`
	Matcher   string   `json:"matcher" yaml:"matcher"`
	FileNames []string `json:"file_names" yaml:"file_names"`
	IssueCode string   `json:"issue_code" yaml:"issue_code"`
}

// Summarize describes a vector, rendering each file parameter against a sample original name
func Summarize(v AttackVector) VectorSummary {
	summary := VectorSummary{
		Name:      v.Name,
		Title:     v.Title,
		Severity:  v.Severity.String(),
		CWE:       v.CWE,
		Matcher:   matcherName(v.Matcher),
		IssueCode: v.IssueCode,
	}
	for _, p := range v.FileParameters {
		name := strings.ReplaceAll(p.FileName("original.jpg", ""), "\x00", `\0`)
		if p.ContentType() != "" {
			name += " (" + p.ContentType() + ")"
		}
		summary.FileNames = append(summary.FileNames, name)
	}
	return summary
}

func matcherName(m ContentMatcher) string {
	switch m.(type) {
	case ServedInlineMatcher:
		return MatcherTypeServedInline
	case MarkerMatcher:
		return MatcherTypeMarker
	case BodyEqualsMatcher:
		return MatcherTypeBodyEquals
	case nil:
		return "none"
	default:
		return "custom"
	}
}

func (s VectorSummary) TableHeaders() []string {
	return []string{"Name", "Severity", "CWE", "Matcher", "Files", "Title"}
}

func (s VectorSummary) TableRow() []string {
	return []string{
		s.Name,
		s.Severity,
		strconv.Itoa(s.CWE),
		s.Matcher,
		strconv.Itoa(len(s.FileNames)),
		s.Title,
	}
}

func (s VectorSummary) String() string {
	return fmt.Sprintf("%s: %s [%s, CWE-%d, %d files]", s.Name, s.Title, s.Severity, s.CWE, len(s.FileNames))
}

func (s VectorSummary) Pretty() string {
	return fmt.Sprintf(
		"%sName:%s %s\n%sTitle:%s %s\n%sSeverity:%s %s\n%sMatcher:%s %s\n%sFiles:%s\n  %s\n",
		lib.Blue, lib.ResetColor, s.Name,
		lib.Blue, lib.ResetColor, s.Title,
		lib.Blue, lib.ResetColor, s.Severity,
		lib.Blue, lib.ResetColor, s.Matcher,
		lib.Blue, lib.ResetColor, strings.Join(s.FileNames, "\n  "),
	)
}
