// Package fetcher crawls a report listing page and downloads the office
// documents (.pdf, .docx, .xlsx) it links to.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

type FetcherConfig struct {
	ListingURL        string
	OutputDir         string
	MaxDepth          int
	RateLimit         float64 // requests per second
	IgnorePatterns    []string
	AllowedExtensions []string // report file extensions to download
	Timeout           time.Duration
	OnProgress        func(url string)
}

type Fetcher struct {
	config   FetcherConfig
	client   *http.Client
	visited  map[string]bool
	limiter  *rate.Limiter
	baseHost string
}

func NewWithConfig(config FetcherConfig) (*Fetcher, error) {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxDepth == 0 {
		config.MaxDepth = 3
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2 // 2 requests per second by default
	}
	if len(config.AllowedExtensions) == 0 {
		config.AllowedExtensions = []string{".pdf", ".docx", ".xlsx"}
	}
	if config.OutputDir == "" {
		config.OutputDir = "reports"
	}

	parsedURL, err := url.Parse(config.ListingURL)
	if err != nil {
		return nil, err
	}

	return &Fetcher{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		visited:  make(map[string]bool),
		limiter:  rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		baseHost: parsedURL.Host,
	}, nil
}

// Fetch crawls the listing page and returns the local paths of every report
// file downloaded.
func (f *Fetcher) Fetch(listingURL string) ([]string, error) {
	if err := os.MkdirAll(f.config.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %v", err)
	}

	var paths []string
	err := f.fetchRecursive(listingURL, 0, &paths)
	return paths, err
}

func (f *Fetcher) isReportLink(urlStr string) bool {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	ext := strings.ToLower(filepath.Ext(parsedURL.Path))
	for _, allowed := range f.config.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func (f *Fetcher) shouldVisit(urlStr string) bool {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	// Stay on the listing's host
	if parsedURL.Host != f.baseHost {
		return false
	}

	for _, pattern := range f.config.IgnorePatterns {
		if strings.Contains(urlStr, pattern) {
			return false
		}
	}

	return true
}

func (f *Fetcher) fetchRecursive(urlStr string, depth int, paths *[]string) error {
	if depth > f.config.MaxDepth || f.visited[urlStr] {
		return nil
	}

	if !f.shouldVisit(urlStr) {
		return nil
	}

	f.visited[urlStr] = true

	if f.isReportLink(urlStr) {
		path, err := f.download(urlStr)
		if err != nil {
			return err
		}
		*paths = append(*paths, path)
		if f.config.OnProgress != nil {
			f.config.OnProgress(urlStr)
		}
		return nil
	}

	// Apply rate limiting
	if err := f.limiter.Wait(context.Background()); err != nil {
		return err
	}

	resp, err := f.client.Get(urlStr)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, urlStr)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return err
	}

	// Follow links to report files and further listing pages
	doc.Find("a[href]").Each(func(_ int, selection *goquery.Selection) {
		href, exists := selection.Attr("href")
		if !exists {
			return
		}

		absoluteURL, err := url.Parse(href)
		if err != nil {
			log.Printf("Error parsing URL: %v", err)
			return
		}

		if !absoluteURL.IsAbs() {
			base, err := url.Parse(urlStr)
			if err != nil {
				log.Printf("Error parsing base URL: %v", err)
				return
			}
			absoluteURL = base.ResolveReference(absoluteURL)
		}

		if err := f.fetchRecursive(absoluteURL.String(), depth+1, paths); err != nil {
			log.Printf("Error fetching URL: %v", err)
		}
	})

	return nil
}

// download saves one report file into the output directory, keeping its
// base name.
func (f *Fetcher) download(urlStr string) (string, error) {
	if err := f.limiter.Wait(context.Background()); err != nil {
		return "", err
	}

	resp, err := f.client.Get(urlStr)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, urlStr)
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(f.config.OutputDir, filepath.Base(parsedURL.Path))
	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", err
	}

	return dest, nil
}
