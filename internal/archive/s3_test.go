package archive

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

type putRecorder struct {
	mu          sync.Mutex
	method      string
	path        string
	contentType string
	body        string
}

func (p *putRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	p.mu.Lock()
	p.method, p.path, p.contentType, p.body = r.Method, r.URL.Path, r.Header.Get("Content-Type"), string(b)
	p.mu.Unlock()
	w.Header().Set("ETag", `"etag"`)
	w.WriteHeader(http.StatusOK)
}

func isolateAWS(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
}

func TestS3Upload(t *testing.T) {
	isolateAWS(t)
	rec := &putRecorder{}
	ts := httptest.NewServer(rec)
	defer ts.Close()

	local := filepath.Join(t.TempDir(), "accounts_20260314_092653.json")
	if err := os.WriteFile(local, []byte(`[{"username":"alpha"}]`), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	a, err := NewS3(context.Background(), S3Config{
		Bucket:          "qa-sessions",
		Endpoint:        ts.URL,
		Prefix:          "/nightly/",
		PathStyle:       true,
		AccessKeyID:     "AKIATEST",
		SecretAccessKey: "secret",
	})
	if err != nil {
		t.Fatalf("new s3: %v", err)
	}
	if a.Driver() != DriverS3 {
		t.Fatalf("driver %s", a.Driver())
	}
	loc, err := a.Upload(context.Background(), local)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if loc != "s3://qa-sessions/nightly/accounts_20260314_092653.json" {
		t.Fatalf("unexpected location %s", loc)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.method != http.MethodPut || rec.path != "/qa-sessions/nightly/accounts_20260314_092653.json" {
		t.Fatalf("unexpected request %s %s", rec.method, rec.path)
	}
	if rec.contentType != "application/json" {
		t.Fatalf("content type %q", rec.contentType)
	}
	if !strings.Contains(rec.body, `"username":"alpha"`) {
		t.Fatalf("body not uploaded: %q", rec.body)
	}
}

func TestS3UploadMissingFile(t *testing.T) {
	isolateAWS(t)
	a, err := NewS3(context.Background(), S3Config{Bucket: "b", AccessKeyID: "k", SecretAccessKey: "s"})
	if err != nil {
		t.Fatalf("new s3: %v", err)
	}
	if _, err := a.Upload(context.Background(), filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("expected open error")
	}
}

func TestS3Key(t *testing.T) {
	a := &S3{bucket: "b"}
	if got := a.Key("/tmp/out/accounts_1.yaml"); got != "accounts_1.yaml" {
		t.Fatalf("key without prefix: %s", got)
	}
	a.prefix = "farm/a"
	if got := a.Key("accounts_1.yaml"); got != "farm/a/accounts_1.yaml" {
		t.Fatalf("key with prefix: %s", got)
	}
	if contentType("x.YML") != "application/yaml" || contentType("x.bin") != "application/octet-stream" {
		t.Fatalf("content type mapping")
	}
}
