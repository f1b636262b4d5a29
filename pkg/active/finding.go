package active

import (
	"fmt"
	"strconv"

	"github.com/pyneda/sukyan-fileupload/lib"
	"github.com/pyneda/sukyan-fileupload/pkg/fileupload"
	"github.com/pyneda/sukyan-fileupload/pkg/http_utils"
)

const printMaxURLLength = 80

// Finding is a confirmed file upload weakness
type Finding struct {
	Code              string `json:"code" yaml:"code"`
	Title             string `json:"title" yaml:"title"`
	Description       string `json:"description" yaml:"description"`
	Remediation       string `json:"remediation" yaml:"remediation"`
	Severity          string `json:"severity" yaml:"severity"`
	CWE               int    `json:"cwe" yaml:"cwe"`
	URL               string `json:"url" yaml:"url"`
	RetrievalURL      string `json:"retrieval_url" yaml:"retrieval_url"`
	FileName          string `json:"file_name" yaml:"file_name"`
	ContentType       string `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	Vector            string `json:"vector" yaml:"vector"`
	Payload           string `json:"payload" yaml:"payload"`
	Attempts          int    `json:"attempts" yaml:"attempts"`
	Request           string `json:"request" yaml:"request"`
	Response          string `json:"response" yaml:"response"`
	RetrievalRequest  string `json:"retrieval_request" yaml:"retrieval_request"`
	RetrievalResponse string `json:"retrieval_response" yaml:"retrieval_response"`
}

// NewFinding builds a finding from the result of a vector that fired
func NewFinding(vector fileupload.AttackVector, result fileupload.VectorResult, original *http_utils.Message) Finding {
	f := Finding{
		Code:         vector.IssueCode,
		Title:        vector.Title,
		Description:  vector.Description,
		Remediation:  vector.Remediation,
		Severity:     vector.Severity.String(),
		CWE:          vector.CWE,
		RetrievalURL: result.RetrievalURI,
		FileName:     result.FileName,
		ContentType:  result.Parameter.ContentType(),
		Vector:       vector.Name,
		Payload:      string(vector.Payload),
		Attempts:     result.Attempts,
	}
	if original != nil && original.Request != nil {
		f.URL = original.Request.URL.String()
	}
	if result.Upload != nil {
		f.Request = string(result.Upload.RawRequest())
		f.Response = string(result.Upload.RawResponse())
	}
	if result.Retrieval != nil {
		f.RetrievalRequest = string(result.Retrieval.RawRequest())
		f.RetrievalResponse = string(result.Retrieval.RawResponse())
	}
	return f
}

func (f Finding) TableHeaders() []string {
	return []string{"Severity", "Title", "Vector", "URL", "Retrieval URL"}
}

func (f Finding) TableRow() []string {
	return []string{
		f.Severity,
		f.Title,
		f.Vector,
		truncateURL(f.URL),
		truncateURL(f.RetrievalURL),
	}
}

func (f Finding) String() string {
	return fmt.Sprintf("[%s] %s (%s) at %s, served from %s", f.Severity, f.Title, f.Vector, f.URL, f.RetrievalURL)
}

func (f Finding) Pretty() string {
	return fmt.Sprintf(
		"%sTitle:%s %s\n%sSeverity:%s %s\n%sCWE:%s %s\n%sVector:%s %s\n%sURL:%s %s\n%sRetrieval URL:%s %s\n%sFile name:%s %q\n%sAttempts:%s %d\n",
		lib.Blue, lib.ResetColor, f.Title,
		lib.Blue, lib.ResetColor, severityColor(f.Severity),
		lib.Blue, lib.ResetColor, "CWE-"+strconv.Itoa(f.CWE),
		lib.Blue, lib.ResetColor, f.Vector,
		lib.Blue, lib.ResetColor, f.URL,
		lib.Blue, lib.ResetColor, f.RetrievalURL,
		lib.Blue, lib.ResetColor, f.FileName,
		lib.Blue, lib.ResetColor, f.Attempts,
	)
}

func severityColor(severity string) string {
	switch fileupload.NewSeverity(severity) {
	case fileupload.Critical, fileupload.High:
		return lib.Colorize(severity, lib.Red)
	case fileupload.Medium:
		return lib.Colorize(severity, lib.Yellow)
	default:
		return lib.Colorize(severity, lib.Green)
	}
}

func truncateURL(u string) string {
	if len(u) > printMaxURLLength {
		return u[:printMaxURLLength] + "..."
	}
	return u
}
