package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ka2n/getfavicon/api/cache"
	"github.com/ka2n/getfavicon/api/favicon"
	"github.com/ka2n/getfavicon/api/fetch"
	"github.com/ka2n/getfavicon/api/magick"
	"github.com/ka2n/getfavicon/log"
)

// PageCacheNamespace is the cache namespace holding page markup
const PageCacheNamespace = "html"

// Options configures a Client. The zero value is usable.
type Options struct {
	// HTTPClient is used for page and icon requests. nil uses a logging client.
	HTTPClient *http.Client
	// UserAgent overrides fetch.DefaultUserAgent.
	UserAgent string

	// IdentifyCommand and ConvertCommand override the ImageMagick executables.
	IdentifyCommand string
	ConvertCommand  string
	// Size is the edge length the favicon is converted to fit in. 0 means magick.DefaultSize.
	Size int

	// TempDir holds staging files. Empty means the OS temporary directory.
	TempDir string

	// Cache enables the on-disk page markup cache.
	Cache bool
	// CacheTTL overrides cache.DefaultTTL.
	CacheTTL time.Duration
	// ForceUpdate ignores cached page markup.
	ForceUpdate bool
}

// Client resolves, downloads and converts favicons.
// A Client holds no per-call state and may be used concurrently.
type Client struct {
	fetcher   *fetch.Fetcher
	scanner   *favicon.LinkScanner
	inspector *magick.Inspector
	tempDir   string
}

// NewClient creates a Client from opts
func NewClient(opts Options) *Client {
	fetcher := fetch.NewFetcher(opts.HTTPClient)
	fetcher.UserAgent = opts.UserAgent
	fetcher.ForceUpdate = opts.ForceUpdate
	if opts.Cache {
		fetcher.PageCache = cache.New[string](PageCacheNamespace)
		if opts.CacheTTL > 0 {
			fetcher.PageCache.SetTTL(opts.CacheTTL)
		}
	}

	return &Client{
		fetcher: fetcher,
		scanner: favicon.NewLinkScanner(),
		inspector: magick.NewInspector(
			magick.WithIdentifyCommand(opts.IdentifyCommand),
			magick.WithConvertCommand(opts.ConvertCommand),
			magick.WithSize(opts.Size),
		),
		tempDir: opts.TempDir,
	}
}

// GetFavicon writes the favicon of the page at pageURL to outputPath using default options.
func GetFavicon(ctx context.Context, pageURL string, outputPath string) error {
	return NewClient(Options{}).GetFavicon(ctx, pageURL, outputPath)
}

// ResolveURL fetches the page at pageURL and returns the URL of its favicon.
func (c *Client) ResolveURL(ctx context.Context, pageURL string) (string, error) {
	markup, err := c.fetcher.FetchPage(ctx, pageURL)
	if err != nil {
		return "", err
	}

	candidate, found := c.scanner.Scan(markup)
	log.Debug("Scanned page for icon link", "page", pageURL, "found", found, "href", candidate)

	iconURL, err := favicon.ResolveURL(candidate, pageURL)
	if err != nil {
		return "", err
	}
	log.Debug("Resolved favicon URL", "page", pageURL, "url", iconURL)
	return iconURL, nil
}

// Download resolves and fetches the favicon of the page at pageURL.
// It returns the favicon together with the URL it was fetched from.
func (c *Client) Download(ctx context.Context, pageURL string) (*favicon.Favicon, string, error) {
	iconURL, err := c.ResolveURL(ctx, pageURL)
	if err != nil {
		return nil, "", err
	}

	fav, err := c.fetcher.Fetch(ctx, iconURL)
	if err != nil {
		return nil, iconURL, err
	}
	return fav, iconURL, nil
}

// GetFavicon writes the favicon of the page at pageURL to outputPath, shrunk to fit
// the configured size. An existing file at outputPath is overwritten.
func (c *Client) GetFavicon(ctx context.Context, pageURL string, outputPath string) error {
	fav, _, err := c.Download(ctx, pageURL)
	if err != nil {
		return err
	}
	return c.ConvertFavicon(ctx, fav, outputPath)
}

// ConvertFavicon stages fav on disk, picks its best layer and writes that layer to outputPath.
func (c *Client) ConvertFavicon(ctx context.Context, fav *favicon.Favicon, outputPath string) error {
	tmp, err := fav.SaveTemporary(c.tempDir)
	if err != nil {
		return err
	}
	defer c.release(tmp)

	inspection, err := c.InspectFile(ctx, tmp.Path())
	if err != nil {
		return err
	}

	log.Debug("Converting favicon", "path", tmp.Path(), "layer", inspection.Best.Index, "output", outputPath)
	return c.inspector.Convert(ctx, tmp.Path(), inspection.Best.Index, outputPath)
}

// Inspection is the result of inspecting an image.
type Inspection struct {
	// Layers as reported by identify.
	Layers []magick.Layer
	// Best is the layer GetFavicon would convert.
	Best magick.Layer
}

// InspectFile lists the layers of the image at path and selects the best one.
func (c *Client) InspectFile(ctx context.Context, path string) (*Inspection, error) {
	layers, err := c.inspector.Layers(ctx, path)
	if err != nil {
		return nil, err
	}
	log.Debug("Identified layers", "path", path, "layers", layers)

	best, err := magick.SelectBest(layers, c.inspector.Size())
	if err != nil {
		return nil, err
	}
	return &Inspection{Layers: layers, Best: best}, nil
}

// InspectFavicon stages fav on disk and inspects it.
func (c *Client) InspectFavicon(ctx context.Context, fav *favicon.Favicon) (*Inspection, error) {
	tmp, err := fav.SaveTemporary(c.tempDir)
	if err != nil {
		return nil, err
	}
	defer c.release(tmp)

	return c.InspectFile(ctx, tmp.Path())
}

func (c *Client) release(tmp *favicon.TempFile) {
	if err := tmp.Remove(); err != nil {
		log.Warn("Failed to remove temporary file", "path", tmp.Path(), "error", err)
	}
}
