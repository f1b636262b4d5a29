package fileupload

import (
	"errors"
	"math/rand"

	"github.com/pyneda/sukyan-fileupload/lib"
)

const fileParameterTokenLength = 10

// FileParameter describes one candidate file to upload for a vector.
// It is immutable once built, its token included.
type FileParameter struct {
	extension          string
	contentType        string
	extensionOperation ExtensionOperation
	nullByteSuffix     string
	token              string
}

// NewFileParameter builds a file parameter. The random token is drawn from rnd, which
// makes uploaded names reproducible for a given seed. A nil rnd uses the global source.
func NewFileParameter(extension, contentType string, op ExtensionOperation, rnd *rand.Rand) FileParameter {
	if op == "" {
		op = OnlyProvidedExtension
	}
	return FileParameter{
		extension:          extension,
		contentType:        contentType,
		extensionOperation: op,
		token:              lib.GenerateRandomStringFrom(rnd, fileParameterTokenLength),
	}
}

// WithNullByteSuffix returns a copy that appends a NUL byte followed by suffix after the extension
func (p FileParameter) WithNullByteSuffix(suffix string) FileParameter {
	p.nullByteSuffix = suffix
	return p
}

func (p FileParameter) Extension() string                      { return p.extension }
func (p FileParameter) ContentType() string                    { return p.contentType }
func (p FileParameter) ExtensionOperation() ExtensionOperation { return p.extensionOperation }
func (p FileParameter) NullByteSuffix() string                 { return p.nullByteSuffix }
func (p FileParameter) Token() string                          { return p.token }

// Validate checks that the parameter can produce a non empty extension
func (p FileParameter) Validate() error {
	if err := p.extensionOperation.Validate(); err != nil {
		return err
	}
	if sanitizeExtension(p.extension) == "" && p.extensionOperation != OnlyOriginalExtension {
		return errors.New("file parameter needs an extension unless it only uses the original one")
	}
	return nil
}

// FinalExtension applies the extension operation against the original file name
func (p FileParameter) FinalExtension(originalFileName string) string {
	return p.extensionOperation.Apply(p.extension, originalFileName)
}

// FileName assembles the uploaded file name: run base, token, then the extension
// (with its period) and the optional null byte suffix.
func (p FileParameter) FileName(originalFileName, runBase string) string {
	name := runBase + p.token
	if ext := p.FinalExtension(originalFileName); ext != "" {
		name += "." + ext
	}
	if p.nullByteSuffix != "" {
		name += "\x00" + p.nullByteSuffix
	}
	return name
}
