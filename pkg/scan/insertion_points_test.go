package scan

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyneda/sukyan-fileupload/pkg/http_utils"
)

const testBoundary = "----WebKitFormBoundary7MA4YWxkTrZu0gW"

func buildRawMultipart(parts ...string) string {
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString("--" + testBoundary + "\r\n")
		sb.WriteString(p)
		sb.WriteString("\r\n")
	}
	sb.WriteString("--" + testBoundary + "--\r\n")
	return sb.String()
}

func newUploadMessage(t *testing.T, body string) *http_utils.Message {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, "https://example.com/upload", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "multipart/form-data; boundary="+testBoundary)
	msg, err := http_utils.NewMessage(req)
	require.NoError(t, err)
	return msg
}

func TestGetMultipartInsertionPoints(t *testing.T) {
	body := buildRawMultipart(
		"Content-Disposition: form-data; name=\"description\"\r\n\r\nholiday",
		"Content-Disposition: form-data; name=\"upload\"; filename=\"cat.jpg\"\r\nContent-Type: image/jpeg\r\n\r\nJPEGDATA",
	)
	msg := newUploadMessage(t, body)

	points, err := GetMultipartInsertionPoints(msg)
	require.NoError(t, err)
	require.Len(t, points, 4)

	assert.Equal(t, InsertionPoint{Type: InsertionPointTypeBody, Name: "description", Value: "holiday", Part: 0}, points[0])
	assert.Equal(t, InsertionPoint{Type: InsertionPointTypeMultipartFileName, Name: "upload", Value: "cat.jpg", Part: 1}, points[1])
	assert.Equal(t, InsertionPoint{Type: InsertionPointTypeMultipartFileContentType, Name: "upload", Value: "image/jpeg", Part: 1}, points[2])
	assert.Equal(t, InsertionPoint{Type: InsertionPointTypeMultipartFileContent, Name: "upload", Value: "JPEGDATA", Part: 1}, points[3])
	assert.True(t, IsMultipartUpload(msg))
}

func TestGetMultipartInsertionPointsKeepsRawFileName(t *testing.T) {
	body := buildRawMultipart(
		"Content-Disposition: form-data; name=\"upload\"; filename=\"../../etc/cat.jpg\"\r\n\r\nx",
	)
	points, err := GetMultipartInsertionPoints(newUploadMessage(t, body))
	require.NoError(t, err)
	require.NotEmpty(t, points)
	assert.Equal(t, "../../etc/cat.jpg", points[0].Value)
	assert.Equal(t, "", points[1].Value)
}

func TestGetMultipartInsertionPointsNotMultipart(t *testing.T) {
	req, err := http.NewRequest(http.MethodPost, "https://example.com/", strings.NewReader("a=b"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	msg, err := http_utils.NewMessage(req)
	require.NoError(t, err)

	_, err = GetMultipartInsertionPoints(msg)
	assert.ErrorIs(t, err, ErrNotMultipart)
	assert.False(t, IsMultipartUpload(msg))
}

func TestIsMultipartUploadWithoutFiles(t *testing.T) {
	body := buildRawMultipart("Content-Disposition: form-data; name=\"q\"\r\n\r\nsearch")
	assert.False(t, IsMultipartUpload(newUploadMessage(t, body)))
}

func TestParseContentDispositionFallback(t *testing.T) {
	name, filename, isFile := parseContentDisposition("form-data; name=\"f\"; filename=\"a\x00.jpg\"")
	assert.Equal(t, "f", name)
	assert.Equal(t, "a\x00.jpg", filename)
	assert.True(t, isFile)
}

func TestInsertionPointTypeHelpers(t *testing.T) {
	assert.True(t, InsertionPointTypeMultipartFileName.IsMultipartFileType())
	assert.False(t, InsertionPointTypeBody.IsMultipartFileType())
	assert.Equal(t, "Multipart File Name", InsertionPointTypeMultipartFileName.HumanReadableName())
	assert.Contains(t, InsertionPointType("other").HumanReadableName(), "Unknown")
}
