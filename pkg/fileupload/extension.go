package fileupload

import (
	"fmt"
	"path"
	"strings"
)

// ExtensionOperation computes the extension of the uploaded file name from the
// payload extension and the name of the file in the original request.
type ExtensionOperation string

const (
	OnlyProvidedExtension   ExtensionOperation = "only_provided_extension"
	OnlyOriginalExtension   ExtensionOperation = "only_original_extension"
	PrefixOriginalExtension ExtensionOperation = "prefix_original_extension"
	SuffixOriginalExtension ExtensionOperation = "suffix_original_extension"
	NoExtension             ExtensionOperation = "no_extension"
)

var extensionOperations = []ExtensionOperation{
	OnlyProvidedExtension,
	OnlyOriginalExtension,
	PrefixOriginalExtension,
	SuffixOriginalExtension,
	NoExtension,
}

// ExtensionOperations returns every supported operation
func ExtensionOperations() []ExtensionOperation {
	return append([]ExtensionOperation(nil), extensionOperations...)
}

func (op ExtensionOperation) String() string {
	return string(op)
}

// Validate returns an error for unknown operations. The empty value is valid and
// behaves as OnlyProvidedExtension.
func (op ExtensionOperation) Validate() error {
	if op == "" {
		return nil
	}
	for _, known := range extensionOperations {
		if op == known {
			return nil
		}
	}
	return fmt.Errorf("unknown extension operation %q", string(op))
}

// Apply returns the final extension without a leading period. The result never
// contains path separators or NUL bytes, whatever the inputs are.
func (op ExtensionOperation) Apply(payloadExt, originalName string) string {
	provided := sanitizeExtension(payloadExt)
	original := OriginalExtension(originalName)
	switch op {
	case OnlyOriginalExtension:
		return original
	case PrefixOriginalExtension:
		return joinExtensions(original, provided)
	case SuffixOriginalExtension:
		return joinExtensions(provided, original)
	case NoExtension:
		return ""
	default:
		return provided
	}
}

// OriginalExtension is the substring after the last period of the last path segment
func OriginalExtension(name string) string {
	if name == "" {
		return ""
	}
	// Both separators, browsers on windows may send full paths
	name = strings.ReplaceAll(name, "\\", "/")
	if strings.HasSuffix(name, "/") {
		return ""
	}
	base := path.Base(name)
	if base == "/" || base == "." {
		return ""
	}
	idx := strings.LastIndex(base, ".")
	if idx < 0 {
		return ""
	}
	return sanitizeExtension(base[idx+1:])
}

func joinExtensions(first, second string) string {
	switch {
	case first == "":
		return second
	case second == "":
		return first
	default:
		return strings.TrimSuffix(first, ".") + "." + strings.TrimPrefix(second, ".")
	}
}

// sanitizeExtension drops path separators and NUL bytes, periods are kept as given
func sanitizeExtension(ext string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return -1
		}
		return r
	}, ext)
}
