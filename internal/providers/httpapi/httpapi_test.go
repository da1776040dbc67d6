package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prov "github.com/oranolio956/qa-automation-framework-sub006/internal/providers"
)

func testClient() *prov.RetryableHTTPClient {
	rc := prov.DefaultRetryConfig()
	rc.MaxRetries = 1
	rc.InitialDelay = time.Millisecond
	rc.MaxDelay = time.Millisecond
	return prov.NewRetryableHTTPClientWithConfig(time.Second, rc)
}

func TestCreateManyDecodesBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != batchPath || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer token")
		}
		var req batchRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Count != 3 {
			t.Errorf("expected count 3, got %d", req.Count)
		}
		_, _ = w.Write([]byte(`{"created":[{"username":"a","password":"p1","status":"active","login_verified":true},{"username":"b","password":"p2","status":"active"}],"failed":[{"index":2,"reason":"captcha"}]}`))
	}))
	defer srv.Close()

	b := NewWithClient(srv.URL+"/", "tok", testClient())
	res, err := b.CreateMany(context.Background(), 3)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(res.Created) != 2 || len(res.Failed) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if !res.Created[0].LoginVerified || res.Failed[0].Reason != "captcha" {
		t.Fatalf("fields not decoded: %+v", res)
	}
}

func TestCreateManyErrorStatusIsCatastrophic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "device pool exhausted", http.StatusInternalServerError)
	}))
	defer srv.Close()

	b := NewWithClient(srv.URL, "", testClient())
	_, err := b.CreateMany(context.Background(), 5)
	if !errors.Is(err, prov.ErrCatastrophic) {
		t.Fatalf("expected ErrCatastrophic, got %v", err)
	}
}

func TestCreateManyValidates(t *testing.T) {
	b := NewWithClient("", "", testClient())
	_, err := b.CreateMany(context.Background(), 1)
	var verr prov.ValidationError
	if !errors.As(err, &verr) || verr.Field != "base_url" {
		t.Fatalf("expected base_url validation error, got %v", err)
	}

	b = NewWithClient("http://127.0.0.1:1", "", testClient())
	_, err = b.CreateMany(context.Background(), 0)
	if !errors.As(err, &verr) || verr.Field != "count" {
		t.Fatalf("expected count validation error, got %v", err)
	}
}
