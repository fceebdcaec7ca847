// Package fetch retrieves page markup and favicon resources.
//
// Favicon URLs are fetched according to their scheme: http and https go over the
// network, data URLs are decoded in place. Any other scheme is rejected.
package fetch

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/ka2n/getfavicon/api/cache"
	"github.com/ka2n/getfavicon/api/favicon"
	"github.com/ka2n/getfavicon/log"
	"github.com/morikuni/failure/v2"
)

// DefaultUserAgent is sent with every request unless overridden.
// Some sites refuse requests carrying the Go default user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Fetcher downloads pages and favicons.
type Fetcher struct {
	client         *http.Client
	dataURLPattern *regexp.Regexp

	// UserAgent is sent as the User-Agent header. Empty means DefaultUserAgent.
	UserAgent string

	// PageCache, when set, stores fetched page markup keyed by page URL.
	PageCache *cache.Cache[string]

	// ForceUpdate ignores cached page markup and fetches it again.
	ForceUpdate bool
}

// NewFetcher creates a Fetcher using client. A nil client uses a client whose
// transport logs requests and responses.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Transport: log.NewTransport(nil)}
	}
	return &Fetcher{
		client: client,
		// data:<mime>;base64,<payload>; the mime may carry its own ;parameters
		dataURLPattern: regexp.MustCompile(`^([^,]+?);base64,(.*)$`),
	}
}

// FetchPage returns the markup of the page at pageURL.
func (f *Fetcher) FetchPage(ctx context.Context, pageURL string) (string, error) {
	if f.PageCache == nil {
		return f.fetchPage(ctx, pageURL)
	}
	return f.PageCache.GetOrSet(pageURL, func() (string, error) {
		return f.fetchPage(ctx, pageURL)
	}, f.ForceUpdate)
}

func (f *Fetcher) fetchPage(ctx context.Context, pageURL string) (string, error) {
	resp, err := f.get(ctx, pageURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := readBody(resp, pageURL)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Fetch retrieves the favicon at iconURL.
func (f *Fetcher) Fetch(ctx context.Context, iconURL string) (*favicon.Favicon, error) {
	u, err := url.Parse(iconURL)
	if err != nil {
		return nil, failure.Wrap(err, failure.WithCode(favicon.ErrURLParse),
			failure.Message("Invalid favicon URL"),
			failure.Context{"url": iconURL, "stage": "fetch"})
	}

	switch u.Scheme {
	case "http", "https":
		return f.fetchHTTP(ctx, iconURL)
	case "data":
		return f.fetchData(u)
	default:
		return nil, failure.New(favicon.ErrUnsupportedScheme,
			failure.Message(fmt.Sprintf("Unsupported scheme: %s", u.Scheme)),
			failure.Context{"scheme": u.Scheme})
	}
}

func (f *Fetcher) fetchHTTP(ctx context.Context, iconURL string) (*favicon.Favicon, error) {
	resp, err := f.get(ctx, iconURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	content, err := readBody(resp, iconURL)
	if err != nil {
		return nil, err
	}

	// a URL without a usable path still yields a favicon, only the filename is unknown
	filename, err := favicon.Filename(iconURL)
	if err != nil {
		log.Debug("No filename for favicon", "url", iconURL, "error", err)
		filename = ""
	}

	return &favicon.Favicon{
		Filename:    filename,
		ContentType: mediaType(resp.Header.Get("Content-Type")),
		Content:     content,
	}, nil
}

func (f *Fetcher) fetchData(u *url.URL) (*favicon.Favicon, error) {
	body := u.Opaque
	if body == "" {
		body = u.Path
	}

	m := f.dataURLPattern.FindStringSubmatch(body)
	if m == nil {
		return nil, failure.New(favicon.ErrUnsupportedDataURLEncoding,
			failure.Message("Unsupported data URL encoding"))
	}

	content, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return nil, failure.Wrap(err, failure.WithCode(favicon.ErrBadImageData),
			failure.Message("Bad image data"))
	}

	return &favicon.Favicon{
		ContentType: mediaType(m[1]),
		Content:     content,
	}, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, failure.Wrap(err, failure.WithCode(favicon.ErrURLParse),
			failure.Message("Invalid URL"),
			failure.Context{"url": rawURL, "stage": "request"})
	}

	ua := f.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, failure.Wrap(err, failure.WithCode(favicon.ErrRequest),
			failure.Message("Request failed"),
			failure.Context{"url": rawURL})
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, failure.New(favicon.ErrUnexpectedStatus,
			failure.Message(fmt.Sprintf("Unexpected response status: %s", resp.Status)),
			failure.Context{"url": rawURL, "status": strconv.Itoa(resp.StatusCode)})
	}
	return resp, nil
}

func readBody(resp *http.Response, rawURL string) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, failure.Wrap(err, failure.WithCode(favicon.ErrRequest),
			failure.Message("Failed to read response body"),
			failure.Context{"url": rawURL})
	}
	return body, nil
}

// mediaType returns the media type of a Content-Type value, or "" when it does not parse.
func mediaType(v string) string {
	if v == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(v)
	if err != nil || !strings.Contains(mt, "/") {
		return ""
	}
	return mt
}
