package sitemap

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func urlset(locs ...string) string {
	body := `<?xml version="1.0" encoding="UTF-8"?><urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`
	for _, loc := range locs {
		body += "<url><loc>" + loc + "</loc></url>"
	}
	return body + "</urlset>"
}

func sitemapindex(locs ...string) string {
	body := `<?xml version="1.0" encoding="UTF-8"?><sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`
	for _, loc := range locs {
		body += "<sitemap><loc>" + loc + "</loc></sitemap>"
	}
	return body + "</sitemapindex>"
}

func TestFetch_URLSet(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, urlset("https://example.com/", "https://example.com/about", "https://example.com/pricing"))
	}))
	defer ts.Close()

	pages, err := New().Fetch(context.Background(), ts.URL, 0)
	require.NoError(t, err)
	require.Equal(t, []string{
		"https://example.com/",
		"https://example.com/about",
		"https://example.com/pricing",
	}, pages)
}

func TestFetch_SingleEntryTreatedLikeList(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, sitemapindex(ts.URL+"/pages.xml"))
	})
	mux.HandleFunc("/pages.xml", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, urlset("https://example.com/only"))
	})

	pages, err := New().Fetch(context.Background(), ts.URL+"/sitemap.xml", 0)
	require.NoError(t, err)
	require.Equal(t, []string{"https://example.com/only"}, pages)
}

func TestFetch_NestedIndexConcatenatesInOrder(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	mux.HandleFunc("/index.xml", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, sitemapindex(ts.URL+"/a.xml", ts.URL+"/b.xml"))
	})
	mux.HandleFunc("/a.xml", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, urlset("https://example.com/a1", "https://example.com/a2"))
	})
	mux.HandleFunc("/b.xml", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, urlset("https://example.com/b1"))
	})

	pages, err := New().Fetch(context.Background(), ts.URL+"/index.xml", 0)
	require.NoError(t, err)
	require.Equal(t, []string{
		"https://example.com/a1",
		"https://example.com/a2",
		"https://example.com/b1",
	}, pages)
}

func TestFetch_DepthBound(t *testing.T) {
	t.Parallel()

	// /level/N points at /level/N+1; /leaf is the urlset. With the
	// root at depth 0 and a cap of 3, a chain of three indexes still
	// reaches the leaf, four does not.
	for _, tc := range []struct {
		name     string
		indexes  int
		expected int
	}{
		{"three levels of index reach the leaf", 3, 1},
		{"four levels of index yield nothing", 4, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mux := http.NewServeMux()
			ts := httptest.NewServer(mux)
			defer ts.Close()

			for i := 0; i < tc.indexes; i++ {
				next := fmt.Sprintf("%s/level/%d", ts.URL, i+1)
				if i == tc.indexes-1 {
					next = ts.URL + "/leaf"
				}
				mux.HandleFunc(fmt.Sprintf("/level/%d", i), func(w http.ResponseWriter, _ *http.Request) {
					fmt.Fprint(w, sitemapindex(next))
				})
			}
			mux.HandleFunc("/leaf", func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, urlset("https://example.com/deep"))
			})

			pages, err := New().Fetch(context.Background(), ts.URL+"/level/0", 0)
			require.NoError(t, err)
			require.Len(t, pages, tc.expected)
		})
	}
}

func TestFetch_NonOKStatusIsError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := New().Fetch(context.Background(), ts.URL, 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "HTTP 404")
}

func TestFetch_NestedFailureAbortsWholeResolution(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	mux.HandleFunc("/index.xml", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, sitemapindex(ts.URL+"/ok.xml", ts.URL+"/broken.xml"))
	})
	mux.HandleFunc("/ok.xml", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, urlset("https://example.com/ok"))
	})
	mux.HandleFunc("/broken.xml", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := New().Fetch(context.Background(), ts.URL+"/index.xml", 0)
	require.Error(t, err)
}

func TestFetch_TimeoutIsError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
		fmt.Fprint(w, urlset("https://example.com/late"))
	}))
	defer ts.Close()

	_, err := New(WithTimeout(30 * time.Millisecond)).Fetch(context.Background(), ts.URL, 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "timeout")
}

func TestFetch_UnrecognizedShapeYieldsEmpty(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0"?><feed><entry>nope</entry></feed>`)
	}))
	defer ts.Close()

	pages, err := New().Fetch(context.Background(), ts.URL, 0)
	require.NoError(t, err)
	require.Empty(t, pages)
}

func TestFetch_MalformedXMLIsError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<urlset><url><loc>unclosed")
	}))
	defer ts.Close()

	_, err := New().Fetch(context.Background(), ts.URL, 0)
	require.Error(t, err)
}
