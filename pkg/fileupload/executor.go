package fileupload

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pyneda/sukyan-fileupload/pkg/http_utils"
	"github.com/pyneda/sukyan-fileupload/pkg/scan"
)

// Variant enumerates the parameters of a request and rewrites them
type Variant interface {
	SetMessage(msg *http_utils.Message) error
	ParamList() []scan.InsertionPoint
	SetParameter(msg *http_utils.Message, point scan.InsertionPoint, name, value string) error
}

type ExecutorOptions struct {
	Sender  http_utils.Sender
	Variant Variant
	Config  LocatorConfig
	// Original is the upload request to attack, including its response if already sent
	Original *http_utils.Message
	// BaseFileName prefixes every uploaded file name of the run
	BaseFileName string
}

// Executor runs attack vectors against a single upload request, one attempt at a time
type Executor struct {
	sender       http_utils.Sender
	variant      Variant
	locator      *URILocator
	original     *http_utils.Message
	baseFileName string
	logger       zerolog.Logger
}

func NewExecutor(opts ExecutorOptions) *Executor {
	variant := opts.Variant
	if variant == nil {
		variant = scan.NewMultipartVariant()
	}
	target := ""
	if opts.Original != nil && opts.Original.Request != nil {
		target = opts.Original.Request.URL.String()
	}
	return &Executor{
		sender:       opts.Sender,
		variant:      variant,
		locator:      NewURILocator(opts.Config, opts.Sender),
		original:     opts.Original,
		baseFileName: opts.BaseFileName,
		logger:       log.With().Str("audit", "file-upload").Str("url", target).Logger(),
	}
}

// VectorResult is the outcome of a vector. On a hit it carries the attempt that fired.
type VectorResult struct {
	Vector       string
	Vulnerable   bool
	Attempts     int
	FileName     string
	Parameter    FileParameter
	RetrievalURI string
	Upload       *http_utils.Message
	Retrieval    *http_utils.Message
}

type attemptOutcome struct {
	fileName  string
	uri       *url.URL
	upload    *http_utils.Message
	retrieval *http_utils.Message
	matched   bool
}

// Run tries the file parameters of vector in order and stops at the first match
func (e *Executor) Run(ctx context.Context, vector AttackVector) (VectorResult, error) {
	result := VectorResult{Vector: vector.Name}
	logger := e.logger.With().Str("vector", vector.Name).Logger()

	if err := e.locator.Config().Validate(); err != nil {
		return result, err
	}
	if e.sender == nil {
		return result, newConfigurationError("no sender configured")
	}
	if e.original == nil || e.original.Request == nil {
		return result, newConfigurationError("no upload request to attack")
	}

	originalFileName, err := e.originalFileName()
	if err != nil {
		return result, err
	}

	for _, param := range vector.FileParameters {
		if err := ctx.Err(); err != nil {
			return result, newTransportError("file upload audit interrupted", err)
		}
		result.Attempts++
		outcome, err := e.attempt(ctx, logger, vector, param, originalFileName)
		if err != nil {
			logger.Debug().Err(err).Int("attempt", result.Attempts).Msg("File upload attempt failed")
			return result, err
		}
		if outcome.matched {
			result.Vulnerable = true
			result.FileName = outcome.fileName
			result.Parameter = param
			result.RetrievalURI = outcome.uri.String()
			result.Upload = outcome.upload
			result.Retrieval = outcome.retrieval
			logger.Info().Str("retrieval_url", result.RetrievalURI).Int("attempt", result.Attempts).Msg("File upload vector matched")
			return result, nil
		}
	}
	logger.Debug().Int("attempts", result.Attempts).Msg("File upload vector did not match")
	return result, nil
}

// originalFileName returns the value of the first file name parameter of the upload request
func (e *Executor) originalFileName() (string, error) {
	defer e.restoreVariant()
	if err := e.variant.SetMessage(e.original); err != nil {
		return "", newConfigurationError("cannot read upload request parameters: %v", err)
	}
	for _, point := range e.variant.ParamList() {
		if point.Type == scan.InsertionPointTypeMultipartFileName {
			return point.Value, nil
		}
	}
	return "", newConfigurationError("upload request has no multipart file parameter")
}

func (e *Executor) restoreVariant() {
	if err := e.variant.SetMessage(e.original); err != nil {
		e.logger.Debug().Err(err).Msg("Could not restore the upload request parameters")
	}
}

// mutate clones the upload request and writes the file name, payload and content type into it
func (e *Executor) mutate(vector AttackVector, param FileParameter, fileName string) (*http_utils.Message, error) {
	upload := e.original.CloneRequest()
	defer e.restoreVariant()

	if err := e.variant.SetMessage(upload); err != nil {
		return nil, newConfigurationError("cannot read upload request parameters: %v", err)
	}
	params := e.variant.ParamList()
	for i := 0; i < len(params); i++ {
		point := params[i]
		var value string
		switch point.Type {
		case scan.InsertionPointTypeMultipartFileName:
			value = fileName
		case scan.InsertionPointTypeMultipartFileContent:
			value = string(vector.Payload)
		case scan.InsertionPointTypeMultipartFileContentType:
			if param.ContentType() == "" {
				continue
			}
			value = param.ContentType()
		default:
			continue
		}
		if err := e.variant.SetParameter(upload, point, point.Name, value); err != nil {
			return nil, newConfigurationError("cannot set %s: %v", point.String(), err)
		}
		// Positions may move once the body is re-serialized
		if err := e.variant.SetMessage(upload); err != nil {
			return nil, newConfigurationError("cannot read rewritten upload request: %v", err)
		}
		params = e.variant.ParamList()
	}
	return upload, nil
}

func (e *Executor) attempt(ctx context.Context, logger zerolog.Logger, vector AttackVector, param FileParameter, originalFileName string) (attemptOutcome, error) {
	outcome := attemptOutcome{fileName: param.FileName(originalFileName, e.baseFileName)}

	upload, err := e.mutate(vector, param, outcome.fileName)
	if err != nil {
		return outcome, err
	}
	if err := e.sender.SendAndReceive(ctx, upload); err != nil {
		return outcome, newTransportError("upload request failed", err)
	}
	outcome.upload = upload
	logger.Debug().Str("file", truncateAtNullByte(outcome.fileName)).Int("status", upload.StatusCode()).Msg("File uploaded")

	located, err := e.locator.Locate(ctx, upload, outcome.fileName)
	if err != nil {
		return outcome, err
	}
	if located.Status == LocatorSoftMiss {
		logger.Debug().Str("file", truncateAtNullByte(outcome.fileName)).Msg("Skipping retrieval, location unknown")
		return outcome, nil
	}
	outcome.uri = located.URI

	retrieval, err := newRetrievalMessage(upload, located.URI)
	if err != nil {
		return outcome, newConfigurationError("cannot build retrieval request for %s: %v", located.URI, err)
	}
	if err := e.sender.SendAndReceive(ctx, retrieval); err != nil {
		return outcome, newTransportError("retrieval of "+located.URI.String()+" failed", err)
	}
	outcome.retrieval = retrieval
	outcome.matched = vector.Matcher != nil && vector.Matcher.Match(retrieval)
	return outcome, nil
}

// newRetrievalMessage builds the GET that fetches the uploaded file back, carrying the
// cookies of the upload request in the same order.
func newRetrievalMessage(upload *http_utils.Message, target *url.URL) (*http_utils.Message, error) {
	req, err := http.NewRequest(http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	msg, err := http_utils.NewMessage(req)
	if err != nil {
		return nil, err
	}
	msg.SetCookies(upload.Cookies())
	return msg, nil
}
