package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyneda/sukyan-fileupload/pkg/scan"
)

func TestBuildFormFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "avatar.png")
	require.NoError(t, os.WriteFile(path, []byte("PNG"), 0644))

	fields, err := buildFormFields([]string{"title=hello=world"}, []string{"upload=" + path})
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, scan.FormField{Name: "title", Value: "hello=world"}, fields[0])
	assert.True(t, fields[1].IsFile)
	assert.Equal(t, "upload", fields[1].Name)
	assert.Equal(t, "avatar.png", fields[1].FileName)
	assert.Equal(t, "image/png", fields[1].ContentType)
	assert.Equal(t, "PNG", fields[1].Value)

	_, err = buildFormFields([]string{"novalue"}, nil)
	assert.Error(t, err)
	_, err = buildFormFields(nil, []string{"upload="})
	assert.Error(t, err)
}

func TestApplyHeaders(t *testing.T) {
	msg, err := scan.NewMultipartMessage("http://example.com/upload", []scan.FormField{
		{Name: "file", Value: "x", IsFile: true, FileName: "x.txt"},
	})
	require.NoError(t, err)

	applyHeaders(msg, []string{"x-api-key: secret", "Host: internal.example.com", "broken"})
	assert.Equal(t, "secret", msg.Request.Header.Get("X-Api-Key"))
	assert.Equal(t, "internal.example.com", msg.Request.Host)
}

func TestLocatorConfigFromFlags(t *testing.T) {
	viper.Set("fileupload.static_location_uri_regex", "/configured/${filename}")
	viper.Set("fileupload.dynamic_location_start_identifier", "href=\"")
	t.Cleanup(func() {
		viper.Set("fileupload.static_location_uri_regex", "")
		viper.Set("fileupload.dynamic_location_start_identifier", "")
		staticLocationURIRegex = ""
	})

	staticLocationURIRegex = "/uploads/${filename}"
	config := locatorConfigFromFlags()
	assert.Equal(t, "/uploads/${filename}", config.StaticLocationURIRegex)
	assert.Equal(t, "href=\"", config.DynamicLocationStartIdentifier)
}

func TestUploadOptionsValidation(t *testing.T) {
	valid := UploadOptions{URL: "http://example.com/upload", Files: []string{"file=a.txt"}, Concurrency: 2, Format: "json"}
	assert.NoError(t, validate.Struct(valid))

	missingTarget := UploadOptions{Concurrency: 2, Format: "json"}
	assert.Error(t, validate.Struct(missingTarget))

	missingFile := UploadOptions{URL: "http://example.com/upload", Concurrency: 2, Format: "json"}
	assert.Error(t, validate.Struct(missingFile))

	badFormat := valid
	badFormat.Format = "xml"
	assert.Error(t, validate.Struct(badFormat))
}

func TestDefaultBaseFileName(t *testing.T) {
	first := defaultBaseFileName()
	assert.Len(t, first, 12)
	assert.NotEqual(t, first, defaultBaseFileName())
}
