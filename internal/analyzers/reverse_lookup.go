package analyzers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/benmeehan/imgmapon/internal/constants"
	"github.com/benmeehan/imgmapon/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

const (
	reverseLookupUserAgent = "Mozilla/5.0"
	bestGuessClass         = "r5a77d"
	maxLookupPageBytes     = 4 << 20
)

// ReverseLookupResult is what a search-by-image page says about the image.
type ReverseLookupResult struct {
	Title     string `json:"title"`
	BestGuess string `json:"best_guess"`
}

// ReverseLookupAnalyzer asks a search-by-image endpoint about the source URL.
// It only runs for URL sources.
type ReverseLookupAnalyzer struct {
	Endpoint string
	Client   *http.Client
	Logger   zerolog.Logger
}

func (r *ReverseLookupAnalyzer) Name() string {
	return constants.AnalyzerReverseLookup
}

func (r *ReverseLookupAnalyzer) IsEnabled(req models.AnalysisRequest) bool {
	return req.ReverseLookup && req.ImageURL != ""
}

func (r *ReverseLookupAnalyzer) Description() string {
	return "Page title and best guess returned by a reverse image search for the source URL."
}

func (r *ReverseLookupAnalyzer) Analyze(ctx context.Context, img *Image) (any, error) {
	if img.URL == "" {
		return nil, errors.New("reverse lookup needs an image URL")
	}

	endpoint := r.Endpoint
	if endpoint == "" {
		endpoint = constants.DefaultReverseLookupEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid reverse lookup endpoint: %w", err)
	}
	q := u.Query()
	q.Set("image_url", img.URL)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", reverseLookupUserAgent)

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reverse lookup request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("reverse lookup returned status %d", resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxLookupPageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse reverse lookup page: %w", err)
	}

	result := ParseReverseLookup(doc)
	r.Logger.Debug().Str("title", result.Title).Str("best_guess", result.BestGuess).Msg("Reverse lookup finished")
	return result, nil
}

// ParseReverseLookup reads the page title and the best-guess block. Missing
// parts read "No title" and "Unknown".
func ParseReverseLookup(doc *html.Node) ReverseLookupResult {
	result := ReverseLookupResult{Title: "No title", BestGuess: "Unknown"}
	titleSeen, guessSeen := false, false

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "title" && !titleSeen:
				titleSeen = true
				if t := strings.TrimSpace(textOf(n)); t != "" {
					result.Title = t
				}
			case n.Data == "div" && !guessSeen && hasClass(n, bestGuessClass):
				guessSeen = true
				result.BestGuess = strings.TrimSpace(textOf(n))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return result
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
