package http_utils

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/benmeehan/imgmapon/pkg/location"
	"github.com/rs/zerolog"
)

const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
	imageAccept      = "image/avif,image/webp,image/apng,image/*,*/*;q=0.8"

	// maxPageBytes caps how much of a share page is scanned for image links.
	maxPageBytes = 4 << 20
)

var (
	googleUserContentRe = regexp.MustCompile(`https://lh\d+\.googleusercontent\.com/[^\s"'<>\\]+`)
	ogImageRe           = regexp.MustCompile(`<meta property="og:image" content="([^"]+)"`)
	driveFileRe         = regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`)
	driveIDRe           = regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`)
	imgurRe             = regexp.MustCompile(`imgur\.com/(?:gallery/|a/)?([A-Za-z0-9]+)`)
)

// Downloader fetches remote images, resolving common share links first.
type Downloader struct {
	Client     *http.Client
	Attempts   int
	RetryDelay time.Duration
	Logger     zerolog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

func NewDownloader(client *http.Client, attempts int, retryDelay time.Duration, logger zerolog.Logger) *Downloader {
	if attempts < 1 {
		attempts = 1
	}
	return &Downloader{
		Client:     client,
		Attempts:   attempts,
		RetryDelay: retryDelay,
		Logger:     logger,
		sleep:      location.SleepContext,
	}
}

// errSkipCandidate marks failures that retrying the same URL cannot fix.
var errSkipCandidate = errors.New("candidate rejected")

// Download saves the first candidate URL that returns image content to
// outputPath and returns the URL actually used.
func (d *Downloader) Download(ctx context.Context, rawURL, outputPath string) (string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", errors.New("no URL provided")
	}

	candidates := d.Candidates(ctx, rawURL)
	var lastErr error

	for i := 0; i < len(candidates); i++ {
		candidate := candidates[i]
		for attempt := 1; attempt <= d.Attempts; attempt++ {
			next, err := d.fetch(ctx, candidate, outputPath)
			if err == nil {
				d.Logger.Info().Str("url", candidate).Str("path", outputPath).Msg("Image downloaded")
				return candidate, nil
			}
			lastErr = err

			if next != "" && !contains(candidates, next) {
				// An HTML page pointed at the real image; try it right after this one.
				candidates = append(candidates[:i+1], append([]string{next}, candidates[i+1:]...)...)
			}
			if errors.Is(err, errSkipCandidate) || ctx.Err() != nil {
				break
			}

			d.Logger.Warn().Err(err).Str("url", candidate).Int("attempt", attempt).Msg("Download attempt failed")
			if attempt < d.Attempts {
				if serr := d.sleep(ctx, d.RetryDelay); serr != nil {
					return "", serr
				}
			}
		}
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return "", fmt.Errorf("error downloading image: %w", lastErr)
}

// fetch downloads one candidate. When the response is an HTML page holding
// a direct image link, that link is returned as next.
func (d *Downloader) fetch(ctx context.Context, candidate, outputPath string) (next string, err error) {
	resp, err := d.get(ctx, candidate, true)
	if err != nil {
		return "", fmt.Errorf("network error for %s: %w", candidate, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("404 Not Found for url %s: %w", candidate, errSkipCandidate)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", fmt.Errorf("HTTP error (%d) for %s", resp.StatusCode, candidate)
	}

	ctype := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ctype, "image/") {
		page, _ := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
		if direct := extractDirectImageLink(string(page)); direct != "" && direct != candidate {
			return direct, fmt.Errorf("page %s links to %s: %w", candidate, direct, errSkipCandidate)
		}
		return "", fmt.Errorf("URL did not return image content-type (%s) for %s: %w", ctype, candidate, errSkipCandidate)
	}

	return "", writeBody(resp.Body, outputPath)
}

func (d *Downloader) get(ctx context.Context, rawURL string, image bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if image {
		req.Header.Set("Accept", imageAccept)
	}
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		// Some hosts refuse hotlinking without a same-site Referer.
		req.Header.Set("Referer", u.Scheme+"://"+u.Host)
	}
	return d.Client.Do(req)
}

// Candidates lists the URLs worth trying for rawURL, best first.
func (d *Downloader) Candidates(ctx context.Context, rawURL string) []string {
	candidates := ShareLinkCandidates(rawURL)

	if isGooglePhotos(rawURL) {
		if direct := d.scrapeGooglePhotos(ctx, rawURL); direct != "" && !contains(candidates, direct) {
			candidates = append([]string{direct}, candidates...)
		}
	}
	return candidates
}

func (d *Downloader) scrapeGooglePhotos(ctx context.Context, pageURL string) string {
	resp, err := d.get(ctx, pageURL, false)
	if err != nil {
		d.Logger.Debug().Err(err).Str("url", pageURL).Msg("Failed to load Google Photos page")
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}
	page, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return ""
	}
	return extractDirectImageLink(string(page))
}

// ShareLinkCandidates returns rawURL followed by direct-download rewrites for
// Google Drive, Dropbox and Imgur share links.
func ShareLinkCandidates(rawURL string) []string {
	candidates := []string{rawURL}
	for _, resolve := range []func(string) string{resolveGoogleDrive, resolveDropbox, resolveImgur} {
		if direct := resolve(rawURL); direct != "" && !contains(candidates, direct) {
			candidates = append(candidates, direct)
		}
	}
	return candidates
}

func resolveGoogleDrive(rawURL string) string {
	if !strings.Contains(rawURL, "drive.google.com") {
		return ""
	}
	if m := driveFileRe.FindStringSubmatch(rawURL); m != nil {
		return "https://drive.google.com/uc?export=download&id=" + m[1]
	}
	if m := driveIDRe.FindStringSubmatch(rawURL); m != nil {
		return "https://drive.google.com/uc?export=download&id=" + m[1]
	}
	return ""
}

func resolveDropbox(rawURL string) string {
	if !strings.Contains(rawURL, "dropbox.com") {
		return ""
	}
	switch {
	case strings.Contains(rawURL, "dl=0"):
		return strings.Replace(rawURL, "dl=0", "dl=1", 1)
	case strings.Contains(rawURL, "dl=1"):
		return ""
	case strings.Contains(rawURL, "?"):
		return rawURL + "&dl=1"
	default:
		return rawURL + "?dl=1"
	}
}

func resolveImgur(rawURL string) string {
	if strings.Contains(rawURL, "i.imgur.com") {
		return ""
	}
	if m := imgurRe.FindStringSubmatch(rawURL); m != nil {
		return "https://i.imgur.com/" + m[1] + ".jpg"
	}
	return ""
}

func isGooglePhotos(rawURL string) bool {
	return strings.Contains(rawURL, "photos.app.goo.gl") ||
		strings.Contains(rawURL, "photos.google.com") ||
		(strings.Contains(rawURL, "googleusercontent.com") && strings.Contains(rawURL, "photos"))
}

// extractDirectImageLink finds an lh*.googleusercontent.com link or an
// og:image meta tag in an HTML page.
func extractDirectImageLink(page string) string {
	text := html.UnescapeString(page)
	if m := googleUserContentRe.FindString(text); m != "" {
		return m
	}
	if m := ogImageRe.FindStringSubmatch(page); m != nil {
		return html.UnescapeString(m[1])
	}
	return ""
}

func writeBody(body io.Reader, outputPath string) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %v", dir, err)
	}

	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %v", outputPath, err)
	}
	defer outFile.Close()

	if _, err := io.Copy(outFile, body); err != nil {
		return fmt.Errorf("failed to write file content to %s: %v", outputPath, err)
	}
	return nil
}

// HostIP resolves the host part of rawURL, preferring IPv4.
func HostIP(ctx context.Context, resolver *net.Resolver, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("URL %q has no host", rawURL)
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}

	if resolver == nil {
		resolver = net.DefaultResolver
	}
	addrs, err := resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", host, err)
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("no addresses for %s", host)
	}
	for _, a := range addrs {
		if v4 := a.IP.To4(); v4 != nil {
			return v4.String(), nil
		}
	}
	return addrs[0].IP.String(), nil
}

// PublicIP asks endpoint for the caller's public address (a plain-text answer).
func PublicIP(ctx context.Context, client *http.Client, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to query public IP: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("public IP endpoint returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return "", err
	}

	ip := net.ParseIP(strings.TrimSpace(string(body)))
	if ip == nil {
		return "", fmt.Errorf("public IP endpoint returned %q", strings.TrimSpace(string(body)))
	}
	return ip.String(), nil
}

// IPLookup bundles the two ways a run finds the IP behind its image.
type IPLookup struct {
	Resolver *net.Resolver
	Client   *http.Client
	Endpoint string
}

func (l *IPLookup) HostIP(ctx context.Context, rawURL string) (string, error) {
	return HostIP(ctx, l.Resolver, rawURL)
}

func (l *IPLookup) PublicIP(ctx context.Context) (string, error) {
	return PublicIP(ctx, l.Client, l.Endpoint)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
