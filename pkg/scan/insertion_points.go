package scan

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/pyneda/sukyan-fileupload/pkg/http_utils"
)

type InsertionPointType string

// Multipart insertion point types
const (
	InsertionPointTypeBody                     InsertionPointType = "body"
	InsertionPointTypeMultipartFileName        InsertionPointType = "multipart_file_name"
	InsertionPointTypeMultipartFileContent     InsertionPointType = "multipart_file_content"
	InsertionPointTypeMultipartFileContentType InsertionPointType = "multipart_file_content_type"
)

// String provides a string representation of the insertion point type
func (ipt InsertionPointType) String() string {
	return string(ipt)
}

// HumanReadableName returns a user-friendly name for the insertion point type
func (ipt InsertionPointType) HumanReadableName() string {
	switch ipt {
	case InsertionPointTypeBody:
		return "Multipart Form Field"
	case InsertionPointTypeMultipartFileName:
		return "Multipart File Name"
	case InsertionPointTypeMultipartFileContent:
		return "Multipart File Content"
	case InsertionPointTypeMultipartFileContentType:
		return "Multipart File Content-Type"
	default:
		return fmt.Sprintf("Unknown (%s)", string(ipt))
	}
}

// IsMultipartFileType returns true for the types that describe a file part
func (ipt InsertionPointType) IsMultipartFileType() bool {
	switch ipt {
	case InsertionPointTypeMultipartFileName, InsertionPointTypeMultipartFileContent, InsertionPointTypeMultipartFileContentType:
		return true
	default:
		return false
	}
}

// InsertionPoint is a (name, value, role) triple found in a request.
// Part is the index of the multipart part the point belongs to.
type InsertionPoint struct {
	Type  InsertionPointType
	Name  string
	Value string
	Part  int
}

func (i *InsertionPoint) String() string {
	return fmt.Sprintf("%s: %s", i.Type, i.Name)
}

// LogSummary returns a concise map suitable for structured logging
func (i *InsertionPoint) LogSummary() map[string]interface{} {
	value := i.Value
	if i.Type == InsertionPointTypeMultipartFileContent && len(value) > 64 {
		value = value[:64] + "..."
	}
	return map[string]interface{}{
		"type":  string(i.Type),
		"name":  i.Name,
		"value": value,
		"part":  i.Part,
	}
}

// MultipartPart is one part of a multipart/form-data body
type MultipartPart struct {
	Header   textproto.MIMEHeader
	Name     string
	FileName string
	IsFile   bool
	Content  []byte
}

// MultipartBody is a parsed multipart/form-data body which keeps the part order
type MultipartBody struct {
	Boundary string
	Parts    []MultipartPart
}

var ErrNotMultipart = errors.New("request body is not multipart/form-data")

// ParseMultipartBody parses a multipart/form-data body keeping every part and its raw headers
func ParseMultipartBody(contentType string, body []byte) (*MultipartBody, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(mediaType, "multipart/form-data") {
		return nil, ErrNotMultipart
	}
	boundary, ok := params["boundary"]
	if !ok || boundary == "" {
		return nil, errors.New("Content-Type does not contain boundary parameter")
	}

	rawParts, err := splitMultipartBody(body, boundary)
	if err != nil {
		return nil, err
	}
	result := &MultipartBody{Boundary: boundary}
	for _, raw := range rawParts {
		header, content := parsePartHeader(raw)
		part := MultipartPart{
			Header:  header,
			Content: content,
		}
		part.Name, part.FileName, part.IsFile = parseContentDisposition(header.Get("Content-Disposition"))
		result.Parts = append(result.Parts, part)
	}
	return result, nil
}

// splitMultipartBody returns the raw parts (headers and content) found between boundaries.
// mime/multipart refuses control bytes in part headers, which null byte file names need.
func splitMultipartBody(body []byte, boundary string) ([][]byte, error) {
	delimiter := []byte("--" + boundary)
	start := bytes.Index(body, delimiter)
	if start < 0 {
		return nil, errors.New("multipart boundary not found in body")
	}
	rest := body[start+len(delimiter):]

	var parts [][]byte
	for {
		if bytes.HasPrefix(rest, []byte("--")) {
			return parts, nil
		}
		// Skip transport padding and the line break after the delimiter
		rest = bytes.TrimLeft(rest, " \t")
		switch {
		case bytes.HasPrefix(rest, []byte("\r\n")):
			rest = rest[2:]
		case bytes.HasPrefix(rest, []byte("\n")):
			rest = rest[1:]
		default:
			return nil, errors.New("malformed multipart delimiter line")
		}

		next := bytes.Index(rest, append([]byte("\n"), delimiter...))
		if next < 0 {
			return nil, io.ErrUnexpectedEOF
		}
		part := rest[:next]
		part = bytes.TrimSuffix(part, []byte("\r"))
		parts = append(parts, part)
		rest = rest[next+1+len(delimiter):]
	}
}

// parsePartHeader splits a raw part into its MIME header and its content
func parsePartHeader(raw []byte) (textproto.MIMEHeader, []byte) {
	header := textproto.MIMEHeader{}
	var head, content []byte
	switch {
	case bytes.HasPrefix(raw, []byte("\r\n")):
		return header, raw[2:]
	case bytes.HasPrefix(raw, []byte("\n")):
		return header, raw[1:]
	}
	if idx := bytes.Index(raw, []byte("\r\n\r\n")); idx >= 0 {
		head, content = raw[:idx], raw[idx+4:]
	} else if idx := bytes.Index(raw, []byte("\n\n")); idx >= 0 {
		head, content = raw[:idx], raw[idx+2:]
	} else {
		head = raw
	}

	var lastKey string
	for _, line := range strings.Split(string(head), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		if (line[0] == ' ' || line[0] == '\t') && lastKey != "" {
			values := header[lastKey]
			values[len(values)-1] += " " + strings.TrimSpace(line)
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		lastKey = textproto.CanonicalMIMEHeaderKey(strings.TrimSpace(key))
		header.Add(lastKey, strings.TrimSpace(value))
	}
	return header, content
}

func cloneMIMEHeader(h textproto.MIMEHeader) textproto.MIMEHeader {
	clone := make(textproto.MIMEHeader, len(h))
	for k, v := range h {
		clone[k] = append([]string(nil), v...)
	}
	return clone
}

// parseContentDisposition extracts the field name and the file name of a form-data part.
// Filenames are returned raw (no path cleaning), since they are part of what gets tested.
func parseContentDisposition(value string) (name string, filename string, isFile bool) {
	if _, params, err := mime.ParseMediaType(value); err == nil {
		filename, isFile = params["filename"]
		return params["name"], filename, isFile
	}
	// Lenient fallback for values mime refuses, e.g. filenames with control characters
	name, _ = dispositionParam(value, "name")
	filename, isFile = dispositionParam(value, "filename")
	return name, filename, isFile
}

func dispositionParam(value, key string) (string, bool) {
	for _, segment := range strings.Split(value, ";") {
		k, v, found := strings.Cut(strings.TrimSpace(segment), "=")
		if !found || !strings.EqualFold(strings.TrimSpace(k), key) {
			continue
		}
		v = strings.TrimSpace(v)
		if len(v) >= 2 && strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`) {
			v = v[1 : len(v)-1]
			v = strings.ReplaceAll(v, `\"`, `"`)
			v = strings.ReplaceAll(v, `\\`, `\`)
		}
		return v, true
	}
	return "", false
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func formatContentDisposition(part MultipartPart) string {
	disposition := fmt.Sprintf(`form-data; name="%s"`, quoteEscaper.Replace(part.Name))
	if part.IsFile {
		disposition += fmt.Sprintf(`; filename="%s"`, quoteEscaper.Replace(part.FileName))
	}
	return disposition
}

// Encode serializes the body canonically, reusing the original boundary when it is valid.
// It returns the new body and the matching Content-Type header value.
func (b *MultipartBody) Encode() ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if b.Boundary != "" {
		if err := writer.SetBoundary(b.Boundary); err != nil {
			// Keep the generated boundary
			b.Boundary = writer.Boundary()
		}
	}
	for _, part := range b.Parts {
		header := cloneMIMEHeader(part.Header)
		header.Set("Content-Disposition", formatContentDisposition(part))
		if ct := header.Get("Content-Type"); ct == "" {
			header.Del("Content-Type")
		}
		w, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := w.Write(part.Content); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}

// InsertionPoints returns the ordered insertion points of the body.
// File parts produce a file name, a content type and a content point; other parts a body point.
func (b *MultipartBody) InsertionPoints() []InsertionPoint {
	var points []InsertionPoint
	for i, part := range b.Parts {
		if !part.IsFile {
			points = append(points, InsertionPoint{
				Type:  InsertionPointTypeBody,
				Name:  part.Name,
				Value: string(part.Content),
				Part:  i,
			})
			continue
		}
		points = append(points,
			InsertionPoint{
				Type:  InsertionPointTypeMultipartFileName,
				Name:  part.Name,
				Value: part.FileName,
				Part:  i,
			},
			InsertionPoint{
				Type:  InsertionPointTypeMultipartFileContentType,
				Name:  part.Name,
				Value: part.Header.Get("Content-Type"),
				Part:  i,
			},
			InsertionPoint{
				Type:  InsertionPointTypeMultipartFileContent,
				Name:  part.Name,
				Value: string(part.Content),
				Part:  i,
			},
		)
	}
	return points
}

// GetMultipartInsertionPoints parses the message body and returns its insertion points
func GetMultipartInsertionPoints(msg *http_utils.Message) ([]InsertionPoint, error) {
	body, err := ParseMultipartBody(msg.Request.Header.Get("Content-Type"), msg.RequestBody)
	if err != nil {
		return nil, err
	}
	return body.InsertionPoints(), nil
}

// IsMultipartUpload reports whether the message uploads at least one file
func IsMultipartUpload(msg *http_utils.Message) bool {
	points, err := GetMultipartInsertionPoints(msg)
	if err != nil {
		return false
	}
	for _, p := range points {
		if p.Type == InsertionPointTypeMultipartFileName {
			return true
		}
	}
	return false
}
