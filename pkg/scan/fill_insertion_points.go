package scan

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/rs/zerolog/log"

	"github.com/pyneda/sukyan-fileupload/pkg/http_utils"
)

type InsertionPointBuilder struct {
	Point   InsertionPoint
	Payload string
}

var ErrInsertionPointNotFound = errors.New("insertion point not found in request")

func applyToPart(part *MultipartPart, builder InsertionPointBuilder) error {
	switch builder.Point.Type {
	case InsertionPointTypeBody, InsertionPointTypeMultipartFileContent:
		part.Content = []byte(builder.Payload)
	case InsertionPointTypeMultipartFileName:
		if !part.IsFile {
			return fmt.Errorf("part %d (%s) is not a file part", builder.Point.Part, part.Name)
		}
		part.FileName = builder.Payload
	case InsertionPointTypeMultipartFileContentType:
		if builder.Payload == "" {
			part.Header.Del("Content-Type")
		} else {
			part.Header.Set("Content-Type", builder.Payload)
		}
	default:
		return fmt.Errorf("unsupported insertion point type %s", builder.Point.Type)
	}
	return nil
}

// ApplyInsertionPoints rewrites the multipart body of msg with the given payloads and re-serializes it
func ApplyInsertionPoints(msg *http_utils.Message, builders []InsertionPointBuilder) error {
	body, err := ParseMultipartBody(msg.Request.Header.Get("Content-Type"), msg.RequestBody)
	if err != nil {
		return err
	}
	for _, builder := range builders {
		idx := builder.Point.Part
		if idx < 0 || idx >= len(body.Parts) || body.Parts[idx].Name != builder.Point.Name {
			return fmt.Errorf("%w: %s", ErrInsertionPointNotFound, builder.Point.String())
		}
		if err := applyToPart(&body.Parts[idx], builder); err != nil {
			return err
		}
	}
	encoded, contentType, err := body.Encode()
	if err != nil {
		return err
	}
	msg.Request.Header.Set("Content-Type", contentType)
	msg.SetRequestBody(encoded)
	return nil
}

// MultipartVariant exposes the insertion points of a multipart upload request and
// lets callers rewrite them one at a time.
type MultipartVariant struct {
	points []InsertionPoint
}

func NewMultipartVariant() *MultipartVariant {
	return &MultipartVariant{}
}

// SetMessage (re)computes the parameter list from the message
func (v *MultipartVariant) SetMessage(msg *http_utils.Message) error {
	if msg == nil || msg.Request == nil {
		return errors.New("message has no request")
	}
	points, err := GetMultipartInsertionPoints(msg)
	if err != nil {
		v.points = nil
		return err
	}
	v.points = points
	return nil
}

// ParamList returns a copy of the current parameter list
func (v *MultipartVariant) ParamList() []InsertionPoint {
	return append([]InsertionPoint(nil), v.points...)
}

// SetParameter writes value into the insertion point of msg, re-serializing the body
func (v *MultipartVariant) SetParameter(msg *http_utils.Message, point InsertionPoint, name, value string) error {
	point.Name = name
	err := ApplyInsertionPoints(msg, []InsertionPointBuilder{{Point: point, Payload: value}})
	if err != nil {
		log.Debug().Err(err).Interface("point", point.LogSummary()).Msg("Could not set multipart parameter")
		return err
	}
	return nil
}

// FormField describes a part used to build a multipart request from scratch
type FormField struct {
	Name        string
	Value       string
	IsFile      bool
	FileName    string
	ContentType string
}

// NewMultipartMessage builds a POST multipart/form-data request to target with the given fields, in order
func NewMultipartMessage(target string, fields []FormField) (*http_utils.Message, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, field := range fields {
		part := MultipartPart{Name: field.Name, FileName: field.FileName, IsFile: field.IsFile}
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", formatContentDisposition(part))
		if field.IsFile {
			contentType := field.ContentType
			if contentType == "" {
				contentType = "application/octet-stream"
			}
			header.Set("Content-Type", contentType)
		}
		w, err := writer.CreatePart(header)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(field.Value)); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	msg, err := http_utils.NewMessage(req)
	if err != nil {
		return nil, err
	}
	msg.SetRequestBody(buf.Bytes())
	return msg, nil
}
