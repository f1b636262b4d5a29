package fileupload

import (
	"context"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pyneda/sukyan-fileupload/pkg/http_utils"
)

const (
	fileNameVariable = "${filename}"
	nullByte         = "\x00"
)

// LocatorConfig selects how the URI of an uploaded file is found
type LocatorConfig struct {
	StaticLocationURIRegex         string `json:"static_location_uri_regex" yaml:"static_location_uri_regex"`
	DynamicLocationURIRegex        string `json:"dynamic_location_uri_regex" yaml:"dynamic_location_uri_regex"`
	DynamicLocationStartIdentifier string `json:"dynamic_location_start_identifier" yaml:"dynamic_location_start_identifier"`
	DynamicLocationEndIdentifier   string `json:"dynamic_location_end_identifier" yaml:"dynamic_location_end_identifier"`
}

type LocatorMode int

const (
	LocatorModeNone LocatorMode = iota
	LocatorModeStatic
	LocatorModeDynamic
	LocatorModeMarkers
)

func (m LocatorMode) String() string {
	switch m {
	case LocatorModeStatic:
		return "static"
	case LocatorModeDynamic:
		return "dynamic"
	case LocatorModeMarkers:
		return "markers"
	default:
		return "none"
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Mode returns the resolution mode, static first, then dynamic, then markers
func (c LocatorConfig) Mode() LocatorMode {
	switch {
	case !isBlank(c.StaticLocationURIRegex):
		return LocatorModeStatic
	case !isBlank(c.DynamicLocationURIRegex):
		return LocatorModeDynamic
	case !isBlank(c.DynamicLocationStartIdentifier) && !isBlank(c.DynamicLocationEndIdentifier):
		return LocatorModeMarkers
	default:
		return LocatorModeNone
	}
}

// Validate fails with a configuration error when no mode can be selected
func (c LocatorConfig) Validate() error {
	if c.Mode() == LocatorModeNone {
		return newConfigurationError("no upload location configured: set a static location, a dynamic location or both location markers")
	}
	return nil
}

type LocatorStatus int

const (
	// LocatorResolved means URI holds the location of the uploaded file
	LocatorResolved LocatorStatus = iota
	// LocatorSoftMiss means the upload response did not reveal a location
	LocatorSoftMiss
)

type LocatorResult struct {
	Status LocatorStatus
	URI    *url.URL
}

// URILocator finds where an uploaded file can be fetched from
type URILocator struct {
	config LocatorConfig
	sender http_utils.Sender
}

// NewURILocator keeps a copy of config; later changes to the caller's value are not seen
func NewURILocator(config LocatorConfig, sender http_utils.Sender) *URILocator {
	return &URILocator{config: config, sender: sender}
}

func (l *URILocator) Config() LocatorConfig {
	return l.config
}

// SubstituteFileName expands ${filename} in template. The file name is cut at its
// first NUL byte, as servers honouring null byte truncation would store it.
func SubstituteFileName(template, fileName string) string {
	return strings.ReplaceAll(template, fileNameVariable, truncateAtNullByte(fileName))
}

func truncateAtNullByte(name string) string {
	if idx := strings.Index(name, nullByte); idx >= 0 {
		return name[:idx]
	}
	return name
}

// completeURI turns a substituted fragment into an absolute URI. Fragments starting
// with a slash are resolved against the scheme and authority of the upload request.
func completeURI(fragment string, msg *http_utils.Message) (*url.URL, error) {
	lower := strings.ToLower(fragment)
	switch {
	case strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://"):
		u, err := url.Parse(fragment)
		if err != nil {
			return nil, newConfigurationError("invalid upload location %q: %v", fragment, err)
		}
		return u, nil
	case strings.HasPrefix(fragment, "/"):
		if msg == nil || msg.Request == nil || msg.Request.URL == nil {
			return nil, newConfigurationError("cannot resolve %q without the upload request", fragment)
		}
		host := msg.Request.URL.Host
		if host == "" {
			host = msg.Request.Host
		}
		u, err := url.Parse(msg.Request.URL.Scheme + "://" + host + fragment)
		if err != nil {
			return nil, newConfigurationError("invalid upload location %q: %v", fragment, err)
		}
		return u, nil
	default:
		return nil, newConfigurationError("upload location %q must start with http://, https:// or /", fragment)
	}
}

// extractBetweenMarkers returns the body from the first start marker (included)
// up to the first end marker (excluded).
func extractBetweenMarkers(body, start, end string) (string, error) {
	if start == "" || end == "" {
		return "", newConfigurationError("dynamic location start and end identifiers are required")
	}
	startIndex := strings.Index(body, start)
	endIndex := strings.Index(body, end)
	if startIndex < 0 || endIndex < 0 || startIndex > endIndex {
		return "", newConfigurationError("location identifiers not present in the response or invalid. Start index: %d End index: %d", startIndex, endIndex)
	}
	return body[startIndex:endIndex], nil
}

// resolveFromResponse reads the location template between the markers of body.
// The start marker is part of the extracted text and is dropped before resolution.
func (l *URILocator) resolveFromResponse(body []byte, fileName string, upload *http_utils.Message) (*url.URL, error) {
	start := l.config.DynamicLocationStartIdentifier
	extracted, err := extractBetweenMarkers(string(body), start, l.config.DynamicLocationEndIdentifier)
	if err != nil {
		return nil, err
	}
	template := strings.TrimPrefix(extracted, start)
	return completeURI(SubstituteFileName(template, fileName), upload)
}

// Locate resolves the URI of fileName, uploaded by msg. Configuration problems and
// failed requests are returned as errors. A location missing from the upload response
// in markers mode is a soft miss.
func (l *URILocator) Locate(ctx context.Context, msg *http_utils.Message, fileName string) (LocatorResult, error) {
	switch l.config.Mode() {
	case LocatorModeStatic:
		u, err := completeURI(SubstituteFileName(l.config.StaticLocationURIRegex, fileName), msg)
		if err != nil {
			return LocatorResult{}, err
		}
		return LocatorResult{Status: LocatorResolved, URI: u}, nil

	case LocatorModeDynamic:
		interim, err := completeURI(SubstituteFileName(l.config.DynamicLocationURIRegex, fileName), msg)
		if err != nil {
			return LocatorResult{}, err
		}
		lookup := msg.CloneRequest()
		lookup.SetURI(interim)
		if l.sender == nil {
			return LocatorResult{}, newConfigurationError("dynamic location lookup needs a sender")
		}
		if err := l.sender.SendAndReceive(ctx, lookup); err != nil {
			return LocatorResult{}, newTransportError("dynamic location lookup to "+interim.String()+" failed", err)
		}
		u, err := l.resolveFromResponse(lookup.ResponseBody, fileName, msg)
		if err != nil {
			return LocatorResult{}, err
		}
		return LocatorResult{Status: LocatorResolved, URI: u}, nil

	case LocatorModeMarkers:
		u, err := l.resolveFromResponse(msg.ResponseBody, fileName, msg)
		if err != nil {
			log.Debug().Err(err).Str("file", truncateAtNullByte(fileName)).Msg("Upload response does not reveal the file location")
			return LocatorResult{Status: LocatorSoftMiss}, nil
		}
		return LocatorResult{Status: LocatorResolved, URI: u}, nil

	default:
		return LocatorResult{}, l.config.Validate()
	}
}
