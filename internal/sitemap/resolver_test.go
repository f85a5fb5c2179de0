package sitemap

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestResolve_BasicHomepage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`<html lang="en"><head><title>Acme Corp</title>
<meta name="description" content="We make things.">
</head><body>
<a href="/blog/post-1">First Post</a>
<a href="/product/widget">Widget</a>
<a href="https://other.example.com/x">External</a>
</body></html>`))
	}))
	defer srv.Close()

	r := New()
	company, pool, err := r.Resolve(t.Context(), srv.URL)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if company.Name != "Acme Corp" {
		t.Errorf("Name = %q, want Acme Corp", company.Name)
	}
	if len(pool) != 2 {
		t.Fatalf("expected 2 same-host candidates, got %d: %+v", len(pool), pool)
	}
	for _, c := range pool {
		if strings.Contains(c.URL, "other.example.com") {
			t.Errorf("external link leaked into pool: %+v", c)
		}
	}
}

func TestResolve_UnreachableHost_DegradesGracefully(t *testing.T) {
	r := New()
	company, pool, err := r.Resolve(t.Context(), "http://127.0.0.1:1/nope")
	if err != nil {
		t.Fatalf("expected graceful degradation, got error: %v", err)
	}
	if company == nil {
		t.Fatal("expected a minimal CompanyContext even on fetch failure")
	}
	if len(pool) != 0 {
		t.Errorf("expected empty pool, got %d", len(pool))
	}
}

func TestResolve_InvalidURL(t *testing.T) {
	r := New()
	_, _, err := r.Resolve(t.Context(), "not-a-url")
	if err == nil {
		t.Fatal("expected error for invalid company_url")
	}
}
