package fileupload

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pyneda/sukyan-fileupload/lib"
	"github.com/pyneda/sukyan-fileupload/pkg/http_utils"
)

// ContentMatcher decides from a retrieved response whether the attack fired.
// Implementations do no I/O and treat unusable responses as a negative match.
type ContentMatcher interface {
	Match(msg *http_utils.Message) bool
}

// ContentMatcherFunc adapts a plain function to ContentMatcher
type ContentMatcherFunc func(msg *http_utils.Message) bool

func (f ContentMatcherFunc) Match(msg *http_utils.Message) bool {
	if f == nil {
		return false
	}
	return f(msg)
}

// Matcher types usable from vector definitions
const (
	MatcherTypeServedInline = "served_inline"
	MatcherTypeMarker       = "marker"
	MatcherTypeBodyEquals   = "body_equals"
)

func hasResponse(msg *http_utils.Message) bool {
	return msg != nil && msg.Response != nil
}

// ServedInlineMatcher matches content a browser would render: the body contains
// Needle and Content-Disposition is either missing or exactly inline.
type ServedInlineMatcher struct {
	Needle []byte
}

func (m ServedInlineMatcher) Match(msg *http_utils.Message) bool {
	if !hasResponse(msg) || len(m.Needle) == 0 {
		return false
	}
	if !isRenderedInline(msg) {
		return false
	}
	return bytes.Contains(msg.ResponseBody, m.Needle)
}

func isRenderedInline(msg *http_utils.Message) bool {
	if !msg.HasResponseHeader("Content-Disposition") {
		return true
	}
	// Parameters such as a filename already hint a download, only the bare value counts
	return strings.TrimSpace(msg.ResponseHeader("Content-Disposition")) == "inline"
}

// MarkerMatcher matches when the body contains a token only produced by server side execution
type MarkerMatcher struct {
	Marker string
}

func (m MarkerMatcher) Match(msg *http_utils.Message) bool {
	if !hasResponse(msg) || m.Marker == "" {
		return false
	}
	return bytes.Contains(msg.ResponseBody, []byte(m.Marker))
}

// BodyEqualsMatcher matches when the body is exactly the expected bytes. Bodies are
// compared through their digests so large artifacts are not kept around.
type BodyEqualsMatcher struct {
	digest string
}

func NewBodyEqualsMatcher(expected []byte) BodyEqualsMatcher {
	return BodyEqualsMatcher{digest: lib.HashBytes(expected)}
}

func (m BodyEqualsMatcher) Match(msg *http_utils.Message) bool {
	if !hasResponse(msg) || m.digest == "" {
		return false
	}
	return lib.HashBytes(msg.ResponseBody) == m.digest
}

// MatcherDefinition is the declarative form of a matcher. An empty Value
// means the vector payload itself.
type MatcherDefinition struct {
	Type  string `yaml:"type" json:"type"`
	Value string `yaml:"value,omitempty" json:"value,omitempty"`
}

// Build returns the matcher described by the definition
func (d MatcherDefinition) Build(payload []byte) (ContentMatcher, error) {
	value := []byte(d.Value)
	if len(value) == 0 {
		value = payload
	}
	switch d.Type {
	case MatcherTypeServedInline:
		return ServedInlineMatcher{Needle: value}, nil
	case MatcherTypeMarker:
		if d.Value == "" {
			return nil, fmt.Errorf("marker matcher needs a value")
		}
		return MarkerMatcher{Marker: d.Value}, nil
	case MatcherTypeBodyEquals:
		return NewBodyEqualsMatcher(value), nil
	default:
		return nil, fmt.Errorf("unknown matcher type %q", d.Type)
	}
}
