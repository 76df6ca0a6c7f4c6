package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestGetFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final?tab=reviews", http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got == "" {
			t.Error("missing User-Agent header")
		}
		w.Write([]byte("<html>ok</html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := New(Options{})
	res, err := client.Get(context.Background(), srv.URL+"/start", nil)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Errorf("status = %d", res.StatusCode)
	}
	if res.FinalURL != srv.URL+"/final?tab=reviews" {
		t.Errorf("final url = %q", res.FinalURL)
	}
	if res.Query.Get("tab") != "reviews" {
		t.Errorf("query = %v", res.Query)
	}
	if res.Body != "<html>ok</html>" {
		t.Errorf("body = %q", res.Body)
	}
}

func TestGetMergesParams(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
	}))
	defer srv.Close()

	client := New(Options{})
	_, err := client.Get(context.Background(), srv.URL+"/?a=1", url.Values{"b": {"2"}})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if gotQuery.Get("a") != "1" || gotQuery.Get("b") != "2" {
		t.Errorf("query = %v", gotQuery)
	}
}

func TestGetTransportError(t *testing.T) {
	client := New(Options{})
	if _, err := client.Get(context.Background(), "http://127.0.0.1:1/unreachable", nil); err == nil {
		t.Error("expected transport error")
	}
}
