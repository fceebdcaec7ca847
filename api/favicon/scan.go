package favicon

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/net/html"
)

// LinkScanner finds icon links in page markup.
//
// It is not an HTML parser: tags are matched with regular expressions on a best-effort basis.
// A LinkScanner is immutable and safe for concurrent use.
type LinkScanner struct {
	linkPattern *regexp.Regexp // <link ...>, attributes in group 1
	relPattern  *regexp.Regexp // rel="..." value in group 1
	hrefPattern *regexp.Regexp // href="..." value in group 1
}

// NewLinkScanner compiles the patterns used by Scan.
func NewLinkScanner() *LinkScanner {
	return &LinkScanner{
		linkPattern: regexp.MustCompile(`(?i)<link\s*([^>]*)>`),
		relPattern:  regexp.MustCompile(`(?i)\brel\s*=\s*['"]([^'"]*)['"]`),
		hrefPattern: regexp.MustCompile(`(?i)\bhref\s*=\s*['"]([^'"]+)['"]`),
	}
}

// Scan returns the href of the first <link> tag whose rel contains the "icon" keyword.
// Tags without an href are skipped. It returns false when no such tag exists.
func (s *LinkScanner) Scan(markup string) (string, bool) {
	hrefs := lo.FilterMap(s.linkPattern.FindAllStringSubmatch(markup, -1), func(m []string, _ int) (string, bool) {
		attributes := m[1]
		if !s.isIcon(attributes) {
			return "", false
		}
		return s.href(attributes)
	})
	if len(hrefs) == 0 {
		return "", false
	}
	return hrefs[0], true
}

func (s *LinkScanner) isIcon(attributes string) bool {
	m := s.relPattern.FindStringSubmatch(attributes)
	if m == nil {
		return false
	}
	return lo.ContainsBy(strings.Fields(m[1]), func(keyword string) bool {
		return strings.EqualFold(keyword, "icon")
	})
}

func (s *LinkScanner) href(attributes string) (string, bool) {
	m := s.hrefPattern.FindStringSubmatch(attributes)
	if m == nil {
		return "", false
	}
	// attribute values in markup are entity-encoded, e.g. ?v=1&amp;s=16
	return html.UnescapeString(m[1]), true
}
