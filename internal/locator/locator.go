// Package locator finds the image a hovered element refers to.
package locator

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kdimtricp/hoverlabel/internal/models"
)

type Source string

const (
	SourceHover    Source = "hover"
	SourceMutation Source = "mutation"
)

// Target is a hovered element as reported by the extension: its outer HTML
// and the URL of the page it lives on.
type Target struct {
	ID      string `json:"target"`
	HTML    string `json:"html"`
	BaseURL string `json:"base_url"`
	Source  Source `json:"source,omitempty"`
}

type Located struct {
	Element  string
	ImageURL string
	Key      models.ImageKey
}

var backgroundPattern = regexp.MustCompile(`(?i)(?:^|;)\s*background(?:-image)?\s*:[^;]*?url\(\s*['"]?([^'")]+?)['"]?\s*\)`)

// Locate walks the element and then its descendants in document order and
// returns the first image reference that resolves to a usable key.
func Locate(t Target) (Located, bool) {
	if strings.TrimSpace(t.HTML) == "" {
		return Located{}, false
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(t.HTML))
	if err != nil {
		return Located{}, false
	}

	var found Located
	ok := false
	doc.Find("body *").EachWithBreak(func(i int, s *goquery.Selection) bool {
		tag := goquery.NodeName(s)
		if tag == "script" || tag == "style" {
			return true
		}

		for _, candidate := range candidates(tag, s) {
			key, err := models.CanonicalImageKey(candidate, t.BaseURL)
			if err != nil {
				continue
			}
			found = Located{Element: tag, ImageURL: candidate, Key: key}
			ok = true
			return false
		}
		return true
	})

	return found, ok
}

func candidates(tag string, s *goquery.Selection) []string {
	var out []string
	if tag == "img" {
		out = appendAttr(out, s, "src")
		out = appendAttr(out, s, "data-src")
	}

	for _, attr := range []string{"srcset", "data-srcset"} {
		if v, ok := s.Attr(attr); ok {
			if u := lastSrcsetCandidate(v); u != "" {
				out = append(out, u)
			}
		}
	}

	if style, ok := s.Attr("style"); ok {
		if u := backgroundImage(style); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func appendAttr(out []string, s *goquery.Selection, name string) []string {
	if v := strings.TrimSpace(s.AttrOr(name, "")); v != "" {
		return append(out, v)
	}
	return out
}

// lastSrcsetCandidate returns the URL of the final srcset entry, which is
// conventionally the largest rendition.
func lastSrcsetCandidate(srcset string) string {
	parts := strings.Split(srcset, ",")
	for i := len(parts) - 1; i >= 0; i-- {
		fields := strings.Fields(parts[i])
		if len(fields) > 0 {
			return fields[0]
		}
	}
	return ""
}

func backgroundImage(style string) string {
	if m := backgroundPattern.FindStringSubmatch(style); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
