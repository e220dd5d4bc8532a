package capture

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// sessionGatedPortal serves the document only to requests presenting the
// session cookie; anything else is bounced to a login page that answers 200.
func sessionGatedPortal(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/docs/plan.pdf", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("ASPSESSION")
		if err != nil || c.Value != "rera123" {
			http.Redirect(w, r, "/Login.aspx", http.StatusFound)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.7 plan"))
	})
	mux.HandleFunc("/Login.aspx", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>Please log in</body></html>"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetcherGet_SessionCookieUnlocksDocument(t *testing.T) {
	srv := sessionGatedPortal(t)
	f, err := newFetcher("")
	if err != nil {
		t.Fatal(err)
	}

	body, finalURL, contentType, err := f.get(context.Background(),
		srv.URL+"/docs/plan.pdf", "ASPSESSION=rera123")
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "%PDF-1.7 plan" {
		t.Errorf("body = %q, want the document payload", body)
	}
	if finalURL != srv.URL+"/docs/plan.pdf" {
		t.Errorf("finalURL = %q, want the document URL", finalURL)
	}
	if !strings.Contains(contentType, "pdf") {
		t.Errorf("contentType = %q", contentType)
	}
}

func TestFetcherGet_MissingSessionLandsOnLoginPage(t *testing.T) {
	srv := sessionGatedPortal(t)
	f, err := newFetcher("")
	if err != nil {
		t.Fatal(err)
	}

	// Without the session the portal answers the login page with 200 — the
	// shape of capture that must never be mistaken for the artifact. The
	// final URL makes the bounce visible to callers.
	body, finalURL, _, err := f.get(context.Background(), srv.URL+"/docs/plan.pdf", "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(finalURL, "/Login.aspx") {
		t.Errorf("finalURL = %q, want the login redirect target", finalURL)
	}
	if !strings.Contains(string(body), "Please log in") {
		t.Errorf("body = %q", body)
	}
}

func TestFetcherGet_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	f, err := newFetcher("")
	if err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := f.get(context.Background(), srv.URL+"/x", ""); err == nil {
		t.Fatal("expected an error for a non-2xx response")
	}
}
