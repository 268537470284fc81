package http_utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDownloader(client *http.Client) (*Downloader, *int) {
	d := NewDownloader(client, 3, time.Second, zerolog.Nop())
	sleeps := 0
	d.sleep = func(context.Context, time.Duration) error {
		sleeps++
		return nil
	}
	return d, &sleeps
}

func TestShareLinkCandidates(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{
			"https://drive.google.com/file/d/AbC_123-x/view?usp=sharing",
			[]string{"https://drive.google.com/file/d/AbC_123-x/view?usp=sharing", "https://drive.google.com/uc?export=download&id=AbC_123-x"},
		},
		{
			"https://drive.google.com/open?id=XYZ",
			[]string{"https://drive.google.com/open?id=XYZ", "https://drive.google.com/uc?export=download&id=XYZ"},
		},
		{
			"https://www.dropbox.com/s/abc/photo.jpg?dl=0",
			[]string{"https://www.dropbox.com/s/abc/photo.jpg?dl=0", "https://www.dropbox.com/s/abc/photo.jpg?dl=1"},
		},
		{
			"https://www.dropbox.com/s/abc/photo.jpg",
			[]string{"https://www.dropbox.com/s/abc/photo.jpg", "https://www.dropbox.com/s/abc/photo.jpg?dl=1"},
		},
		{
			"https://imgur.com/gallery/aBc123",
			[]string{"https://imgur.com/gallery/aBc123", "https://i.imgur.com/aBc123.jpg"},
		},
		{
			"https://i.imgur.com/aBc123.png",
			[]string{"https://i.imgur.com/aBc123.png"},
		},
		{
			"https://example.com/photo.jpg",
			[]string{"https://example.com/photo.jpg"},
		},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ShareLinkCandidates(tt.in), tt.in)
	}
}

func TestExtractDirectImageLink(t *testing.T) {
	page := `<html><script>var x = "https://lh3.googleusercontent.com/pw/AbCd=w1024-h768";</script></html>`
	assert.Equal(t, "https://lh3.googleusercontent.com/pw/AbCd=w1024-h768", extractDirectImageLink(page))

	og := `<meta property="og:image" content="https://cdn.example.com/a.jpg?x=1&amp;y=2">`
	assert.Equal(t, "https://cdn.example.com/a.jpg?x=1&y=2", extractDirectImageLink(og))

	assert.Empty(t, extractDirectImageLink("<html></html>"))
}

func TestDownload_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, browserUserAgent, r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get("Referer"))
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpegdata"))
	}))
	defer srv.Close()
	d, _ := newTestDownloader(srv.Client())
	out := filepath.Join(t.TempDir(), "sub", "image.jpg")

	used, err := d.Download(context.Background(), srv.URL+"/photo.jpg", out)

	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/photo.jpg", used)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "jpegdata", string(data))
}

func TestDownload_NotFoundIsNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.NotFound(w, r)
	}))
	defer srv.Close()
	d, sleeps := newTestDownloader(srv.Client())

	_, err := d.Download(context.Background(), srv.URL+"/missing.jpg", filepath.Join(t.TempDir(), "x.jpg"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, *sleeps)
}

func TestDownload_ServerErrorIsRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png"))
	}))
	defer srv.Close()
	d, sleeps := newTestDownloader(srv.Client())

	_, err := d.Download(context.Background(), srv.URL+"/a.png", filepath.Join(t.TempDir(), "a.png"))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, *sleeps)
}

func TestDownload_FollowsLinkInHTMLPage(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<meta property="og:image" content="` + srv.URL + `/direct.jpg">`))
	})
	mux.HandleFunc("/direct.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg"))
	})
	d, _ := newTestDownloader(srv.Client())

	used, err := d.Download(context.Background(), srv.URL+"/page", filepath.Join(t.TempDir(), "d.jpg"))

	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/direct.jpg", used)
}

func TestDownload_EmptyURL(t *testing.T) {
	d, _ := newTestDownloader(http.DefaultClient)

	_, err := d.Download(context.Background(), " ", "x")

	assert.Error(t, err)
}

func TestHostIP_LiteralAddress(t *testing.T) {
	ip, err := HostIP(context.Background(), nil, "http://203.0.113.9:8080/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.9", ip)

	_, err = HostIP(context.Background(), nil, "not a url")
	assert.Error(t, err)
}

func TestPublicIP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("198.51.100.4\n"))
	}))
	defer srv.Close()

	ip, err := PublicIP(context.Background(), srv.Client(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "198.51.100.4", ip)

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>rate limited</html>"))
	}))
	defer bad.Close()

	_, err = PublicIP(context.Background(), bad.Client(), bad.URL)
	assert.Error(t, err)
}
