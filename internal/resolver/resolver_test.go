package resolver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver() *Resolver {
	return New(Config{}, zerolog.Nop())
}

// pinStrategy redirects a dispatch entry's host matching at the given test
// server so strategies can run against httptest fixtures.
func pinStrategy(t *testing.T, r *Resolver, name, serverURL string) {
	t.Helper()
	u, err := url.Parse(serverURL)
	require.NoError(t, err)
	host := strings.ToLower(u.Host)
	for i := range r.dispatch {
		if r.dispatch[i].name == name {
			r.dispatch[i].matches = func(h string) bool { return h == host }
			return
		}
	}
	t.Fatalf("no dispatch entry named %s", name)
}

func TestResolve_UnknownPlatformIsNoOp(t *testing.T) {
	r := newTestResolver()

	in := "https://repository.example.net/items/42"
	assert.Equal(t, in, r.Resolve(context.Background(), in))
}

func TestResolve_NeverEmptyNeverPanics(t *testing.T) {
	r := newTestResolver()
	ctx := context.Background()

	inputs := []string{
		"",
		"not a url",
		"https://open.umn.edu/opentextbooks/textbooks/42", // fetch will fail, no server
		"ftp://weird.scheme/file",
	}
	for _, in := range inputs {
		got := r.Resolve(ctx, in)
		assert.Equal(t, in, got, "input %q must come back unchanged", in)
	}
}

func TestResolve_OpenTextbooks(t *testing.T) {
	t.Run("format link redirecting to a PDF asset", func(t *testing.T) {
		assets := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/pdf")
			fmt.Fprint(w, "%PDF-1.4")
		}))
		defer assets.Close()

		landing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			switch req.URL.Path {
			case "/opentextbooks/textbooks/42":
				fmt.Fprintf(w, `<html><body>
					<a href="/opentextbooks/formats/99" data-format="epub">EPUB</a>
					<a href="/opentextbooks/formats/100" data-format="pdf">PDF</a>
				</body></html>`)
			case "/opentextbooks/formats/100":
				http.Redirect(w, req, assets.URL+"/book.pdf", http.StatusFound)
			default:
				http.NotFound(w, req)
			}
		}))
		defer landing.Close()

		r := newTestResolver()
		pinStrategy(t, r, "opentextbooks", landing.URL)

		got := r.Resolve(context.Background(), landing.URL+"/opentextbooks/textbooks/42")
		assert.Equal(t, assets.URL+"/book.pdf", got)
	})

	t.Run("no PDF format link falls back to the landing page", func(t *testing.T) {
		landing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			fmt.Fprint(w, `<html><body><a href="/formats/1" data-format="epub">EPUB</a></body></html>`)
		}))
		defer landing.Close()

		r := newTestResolver()
		pinStrategy(t, r, "opentextbooks", landing.URL)

		in := landing.URL + "/opentextbooks/textbooks/7"
		assert.Equal(t, in, r.Resolve(context.Background(), in))
	})

	t.Run("redirect into another known platform applies its strategy", func(t *testing.T) {
		// The "libretexts" fixture: inline page config plus a live batch export.
		libre := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			switch {
			case strings.HasPrefix(req.URL.Path, "/Bookshelves"):
				fmt.Fprint(w, `<html><script>mt = {"pageId":31503};</script></html>`)
			case strings.HasPrefix(req.URL.Path, "/print/"):
				w.WriteHeader(http.StatusOK)
			default:
				http.NotFound(w, req)
			}
		}))
		defer libre.Close()

		oldFormat := libretextsBatchFormat
		libretextsBatchFormat = libre.URL + "/print/%s-%s/Full.pdf"
		defer func() { libretextsBatchFormat = oldFormat }()

		landing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			switch req.URL.Path {
			case "/opentextbooks/textbooks/9":
				fmt.Fprint(w, `<html><a href="/opentextbooks/formats/12">PDF</a></html>`)
			case "/opentextbooks/formats/12":
				http.Redirect(w, req, libre.URL+"/Bookshelves/General_Chemistry", http.StatusFound)
			default:
				http.NotFound(w, req)
			}
		}))
		defer landing.Close()

		r := newTestResolver()
		pinStrategy(t, r, "opentextbooks", landing.URL)
		pinStrategy(t, r, "libretexts", libre.URL)

		got := r.Resolve(context.Background(), landing.URL+"/opentextbooks/textbooks/9")
		assert.Equal(t, libre.URL+"/print/127-31503/Full.pdf", got)
	})
}

func TestResolve_LibreTexts(t *testing.T) {
	t.Run("falls back to page-level export when batch is missing", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if strings.HasPrefix(req.URL.Path, "/print/") {
				http.NotFound(w, req)
				return
			}
			fmt.Fprint(w, `<html><script>pageid = "777";</script></html>`)
		}))
		defer server.Close()

		oldFormat := libretextsBatchFormat
		libretextsBatchFormat = server.URL + "/print/%s-%s/Full.pdf"
		defer func() { libretextsBatchFormat = oldFormat }()

		r := newTestResolver()
		pinStrategy(t, r, "libretexts", server.URL)

		u, err := url.Parse(server.URL)
		require.NoError(t, err)
		got := r.Resolve(context.Background(), server.URL+"/Bookshelves/Intro")
		assert.Equal(t, fmt.Sprintf("https://%s/@api/deki/pages/777/pdf", u.Host), got)
	})

	t.Run("page without an identifier falls back to the landing page", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			fmt.Fprint(w, `<html><body>No config here.</body></html>`)
		}))
		defer server.Close()

		r := newTestResolver()
		pinStrategy(t, r, "libretexts", server.URL)

		in := server.URL + "/Bookshelves/Empty"
		assert.Equal(t, in, r.Resolve(context.Background(), in))
	})
}

func TestResolve_OAPEN(t *testing.T) {
	t.Run("prefers download wording over bare bitstream match", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			fmt.Fprint(w, `<html><body>
				<a href="/bitstream/handle/20.500/1/cover.jpg">Cover image</a>
				<a href="/bitstream/handle/20.500/1/book.pdf">Download PDF</a>
			</body></html>`)
		}))
		defer server.Close()

		r := newTestResolver()
		pinStrategy(t, r, "oapen", server.URL)

		got := r.Resolve(context.Background(), server.URL+"/handle/20.500/1")
		assert.Equal(t, server.URL+"/bitstream/handle/20.500/1/book.pdf", got)
	})

	t.Run("bare bitstream link is still used when nothing better exists", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			fmt.Fprint(w, `<html><body><a href="/bitstream/handle/2/asset">asset</a></body></html>`)
		}))
		defer server.Close()

		r := newTestResolver()
		pinStrategy(t, r, "oapen", server.URL)

		got := r.Resolve(context.Background(), server.URL+"/handle/2")
		assert.Equal(t, server.URL+"/bitstream/handle/2/asset", got)
	})

	t.Run("page without bitstream links falls back", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			fmt.Fprint(w, `<html><body><a href="/about">About</a></body></html>`)
		}))
		defer server.Close()

		r := newTestResolver()
		pinStrategy(t, r, "oapen", server.URL)

		in := server.URL + "/handle/3"
		assert.Equal(t, in, r.Resolve(context.Background(), in))
	})
}

func TestStrategyFor(t *testing.T) {
	r := newTestResolver()

	assert.Equal(t, "opentextbooks", r.StrategyFor("https://open.umn.edu/opentextbooks/textbooks/42"))
	assert.Equal(t, "libretexts", r.StrategyFor("https://chem.libretexts.org/Bookshelves"))
	assert.Equal(t, "oapen", r.StrategyFor("https://library.oapen.org/handle/20.500.12657/1"))
	assert.Equal(t, "", r.StrategyFor("https://example.net/item"))
}

func TestLooksLikePDF(t *testing.T) {
	assert.True(t, looksLikePDF("https://x.net/book.pdf"))
	assert.True(t, looksLikePDF("https://x.net/book.PDF?download=1"))
	assert.True(t, looksLikePDF("https://arxiv.org/pdf/2301.07041"))
	assert.False(t, looksLikePDF("https://x.net/book.epub"))
}
