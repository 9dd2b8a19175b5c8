package wikipedia

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/wikibench/wikibench"
)

var markdownLinkRegex = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

// namespacePrefixes are non-article namespaces; links into them are not
// part of the game graph.
var namespacePrefixes = []string{
	"Special:", "Wikipedia:", "Help:", "Category:", "Portal:",
	"Template:", "Template_talk:", "Talk:", "User:", "User_talk:",
	"File:", "MediaWiki:", "Module:", "Draft:",
}

// ExtractLinks returns every Wikipedia article link in a markdown page,
// in document order. External links and non-article namespaces are
// filtered out.
func ExtractLinks(markdown string) []wikibench.Link {
	matches := markdownLinkRegex.FindAllStringSubmatch(markdown, -1)
	links := make([]wikibench.Link, 0, len(matches))
	for _, m := range matches {
		text := strings.TrimSpace(m[1])
		href := stripTitleAttribute(m[2])
		if text == "" || href == "" {
			continue
		}
		title, ok := NormalizeArticleURL(href)
		if !ok {
			continue
		}
		links = append(links, wikibench.Link{Text: text, URL: href, Title: title})
	}
	return links
}

// stripTitleAttribute drops a markdown title attribute from an href:
// `/wiki/Animal "Animal"` becomes `/wiki/Animal`.
func stripTitleAttribute(href string) string {
	if i := strings.Index(href, ` "`); i >= 0 {
		href = href[:i]
	} else if i := strings.Index(href, ` '`); i >= 0 {
		href = href[:i]
	}
	return strings.TrimSpace(href)
}

// NormalizeArticleURL resolves an href to an article title. The second
// return is false for anything that is not a Wikipedia article link.
func NormalizeArticleURL(href string) (string, bool) {
	var title string
	switch {
	case strings.HasPrefix(href, "/wiki/"):
		title = href[len("/wiki/"):]
	case strings.HasPrefix(href, "//en.wikipedia.org/wiki/"):
		title = href[len("//en.wikipedia.org/wiki/"):]
	case strings.HasPrefix(href, "https://en.wikipedia.org/wiki/"):
		title = href[len("https://en.wikipedia.org/wiki/"):]
	case strings.HasPrefix(href, "http://en.wikipedia.org/wiki/"):
		title = href[len("http://en.wikipedia.org/wiki/"):]
	default:
		return "", false
	}

	if i := strings.IndexByte(title, '#'); i >= 0 {
		title = title[:i]
	}
	if title == "" {
		return "", false
	}
	for _, prefix := range namespacePrefixes {
		if strings.HasPrefix(title, prefix) {
			return "", false
		}
	}
	if strings.HasPrefix(title, "//") || strings.HasPrefix(title, "http") {
		return "", false
	}

	if decoded, err := url.QueryUnescape(title); err == nil {
		title = decoded
	}
	return strings.ReplaceAll(title, "_", " "), true
}

// TitleFromURL extracts an article title from any Wikipedia URL shape,
// falling back to the last /wiki/ path segment.
func TitleFromURL(raw string) string {
	if title, ok := NormalizeArticleURL(raw); ok {
		return title
	}
	parsed, err := url.Parse(raw)
	if err == nil && strings.Contains(parsed.Path, "/wiki/") {
		title := parsed.Path[strings.LastIndex(parsed.Path, "/wiki/")+len("/wiki/"):]
		if decoded, err := url.QueryUnescape(title); err == nil {
			title = decoded
		}
		if i := strings.IndexByte(title, '#'); i >= 0 {
			title = title[:i]
		}
		return strings.ReplaceAll(title, "_", " ")
	}
	return raw
}
