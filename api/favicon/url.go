package favicon

import (
	"net/url"
	"strings"

	"github.com/morikuni/failure/v2"
)

// DefaultPath is joined against the page origin when a page declares no usable icon link.
const DefaultPath = "/favicon.ico"

// resolve stages, reported in the "stage" context of URL errors
const (
	stageAbsolute = "absolute"
	stageJoined   = "joined"
	stageFallback = "fallback"
)

// ResolveURL produces the favicon URL for a page.
//
// The candidate is the href found in the page markup, empty when none was found.
// Strategies are tried in order and the first one that succeeds wins:
//  1. the candidate as an absolute URL on its own
//  2. the candidate joined to pageURL (RFC 3986 reference resolution)
//  3. DefaultPath joined to pageURL
//
// The candidate is cleaned with CleanHref first. Only a pageURL that cannot
// serve as a base makes the resolution fail.
func ResolveURL(candidate string, pageURL string) (string, error) {
	candidate = CleanHref(candidate)
	if u, err := resolveAbsolute(candidate); err == nil {
		return u, nil
	}
	if u, err := resolveJoined(candidate, pageURL); err == nil {
		return u, nil
	}
	return resolveFallback(pageURL)
}

// CleanHref strips leading and trailing spaces and C0 control characters and
// removes tab, CR and LF anywhere, as browsers do before parsing a URL.
func CleanHref(href string) string {
	href = strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, href)
	return strings.TrimFunc(href, func(r rune) bool {
		return r <= ' '
	})
}

func resolveAbsolute(candidate string) (string, error) {
	if candidate == "" {
		return "", failure.New(ErrNoLink, failure.Message("No link to favicon"))
	}

	u, err := url.Parse(candidate)
	if err != nil {
		return "", failure.Wrap(err, failure.WithCode(ErrURLParse),
			failure.Message("Invalid favicon URL"),
			failure.Context{"url": candidate, "stage": stageAbsolute})
	}
	if !u.IsAbs() {
		return "", failure.New(ErrURLParse,
			failure.Message("Favicon URL is not absolute"),
			failure.Context{"url": candidate, "stage": stageAbsolute})
	}
	return u.String(), nil
}

func resolveJoined(candidate string, pageURL string) (string, error) {
	if candidate == "" {
		return "", failure.New(ErrNoLink, failure.Message("No link to favicon"))
	}

	base, err := parseBase(pageURL, stageJoined)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(candidate)
	if err != nil {
		return "", failure.Wrap(err, failure.WithCode(ErrURLParse),
			failure.Message("Invalid favicon URL"),
			failure.Context{"url": candidate, "stage": stageJoined})
	}
	return base.ResolveReference(ref).String(), nil
}

func resolveFallback(pageURL string) (string, error) {
	base, err := parseBase(pageURL, stageFallback)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(&url.URL{Path: DefaultPath}).String(), nil
}

// parseBase parses pageURL and checks it can be used as a base for joining.
func parseBase(pageURL string, stage string) (*url.URL, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, failure.Wrap(err, failure.WithCode(ErrURLParse),
			failure.Message("Invalid page URL"),
			failure.Context{"url": pageURL, "stage": stage})
	}
	// opaque URLs such as mailto: or data: have no hierarchy to join against
	if !base.IsAbs() || base.Opaque != "" {
		return nil, failure.New(ErrNoLink,
			failure.Message("No link to favicon: page URL cannot be used as a base"),
			failure.Context{"url": pageURL, "stage": stage})
	}
	return base, nil
}

// Filename returns the last path segment of rawURL.
//
// It fails with ErrNoPath when the URL has no path or the path ends with '/'.
func Filename(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", failure.Wrap(err, failure.WithCode(ErrURLParse),
			failure.Message("Invalid favicon URL"),
			failure.Context{"url": rawURL, "stage": "filename"})
	}

	path := u.EscapedPath()
	if path == "" {
		return "", noPath(rawURL)
	}
	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]
	if last == "" {
		return "", noPath(rawURL)
	}
	return last, nil
}

func noPath(rawURL string) error {
	return failure.New(ErrNoPath,
		failure.Message("URL has no path"),
		failure.Context{"url": rawURL})
}
