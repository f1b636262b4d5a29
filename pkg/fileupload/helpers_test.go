package fileupload

import (
	"bytes"
	"context"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pyneda/sukyan-fileupload/pkg/http_utils"
	"github.com/pyneda/sukyan-fileupload/pkg/scan"
)

// stubSender answers every message with the response built by respond
type stubSender struct {
	mu      sync.Mutex
	calls   []*http_utils.Message
	respond func(msg *http_utils.Message) (int, http.Header, string)
	err     error
}

func (s *stubSender) SendAndReceive(ctx context.Context, msg *http_utils.Message) error {
	s.mu.Lock()
	s.calls = append(s.calls, msg)
	s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	status, header, body := http.StatusOK, http.Header{}, ""
	if s.respond != nil {
		status, header, body = s.respond(msg)
	}
	if header == nil {
		header = http.Header{}
	}
	msg.Response = &http.Response{StatusCode: status, Header: header, Body: http.NoBody}
	msg.ResponseBody = []byte(body)
	return nil
}

func (s *stubSender) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type storedFile struct {
	name        string
	contentType string
	content     []byte
}

// uploadTarget is a fake application that stores multipart uploads and serves them
// back under /uploads/. Stored names are cut at the first NUL byte.
type uploadTarget struct {
	mu         sync.Mutex
	files      map[string]storedFile
	requests   []*http.Request
	uploads    int
	retrievals int
	others     int
	// uploadResponse builds the body of the upload response for a stored file
	uploadResponse func(f storedFile) string
	// serve writes the retrieval response for a stored file
	serve  func(w http.ResponseWriter, f storedFile)
	server *httptest.Server
}

func newUploadTarget(t *testing.T) *uploadTarget {
	t.Helper()
	target := &uploadTarget{
		files: make(map[string]storedFile),
		serve: func(w http.ResponseWriter, f storedFile) {
			w.Header().Set("Content-Type", f.contentType)
			w.Write(f.content)
		},
	}
	target.server = httptest.NewServer(http.HandlerFunc(target.handle))
	t.Cleanup(target.server.Close)
	return target
}

func (u *uploadTarget) handle(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.requests = append(u.requests, r.Clone(context.Background()))

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/upload":
		u.uploads++
		body, _ := io.ReadAll(r.Body)
		parsed, err := scan.ParseMultipartBody(r.Header.Get("Content-Type"), body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var stored storedFile
		for _, part := range parsed.Parts {
			if !part.IsFile {
				continue
			}
			stored = storedFile{
				name:        truncateAtNullByte(part.FileName),
				contentType: part.Header.Get("Content-Type"),
				content:     part.Content,
			}
			u.files[stored.name] = stored
		}
		if u.uploadResponse != nil {
			io.WriteString(w, u.uploadResponse(stored))
			return
		}
		io.WriteString(w, "uploaded")
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/uploads/"):
		u.retrievals++
		f, ok := u.files[strings.TrimPrefix(r.URL.Path, "/uploads/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		u.serve(w, f)
	default:
		u.others++
		http.NotFound(w, r)
	}
}

func (u *uploadTarget) counts() (uploads, retrievals, others int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.uploads, u.retrievals, u.others
}

func (u *uploadTarget) retrievalRequests() []*http.Request {
	u.mu.Lock()
	defer u.mu.Unlock()
	var out []*http.Request
	for _, r := range u.requests {
		if r.Method == http.MethodGet {
			out = append(out, r)
		}
	}
	return out
}

func newOriginalUpload(t *testing.T, target string) *http_utils.Message {
	t.Helper()
	msg, err := scan.NewMultipartMessage(target+"/upload", []scan.FormField{
		{Name: "csrf", Value: "t0k3n"},
		{Name: "avatar", Value: "\xff\xd8\xff\xe0JPEG", IsFile: true, FileName: "avatar.jpg", ContentType: "image/jpeg"},
	})
	require.NoError(t, err)
	msg.Request.Header.Set("Cookie", "session=abc123; theme=dark; z=1")
	return msg
}

func newTestExecutor(t *testing.T, original *http_utils.Message, config LocatorConfig, sender http_utils.Sender) *Executor {
	t.Helper()
	if sender == nil {
		sender = &http_utils.HTTPSender{Client: &http.Client{}}
	}
	return NewExecutor(ExecutorOptions{
		Sender:       sender,
		Config:       config,
		Original:     original,
		BaseFileName: "run",
	})
}

func seededRand() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func newTestVector(name string, payload string, matcher ContentMatcher, params ...FileParameter) AttackVector {
	return AttackVector{
		Name:           name,
		Title:          name,
		Severity:       High,
		Payload:        []byte(payload),
		FileParameters: params,
		Matcher:        matcher,
	}
}

func bodyOf(msg *http_utils.Message) string {
	return string(bytes.Clone(msg.RequestBody))
}
