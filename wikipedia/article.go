package wikipedia

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/wikibench/wikibench"
)

// FetchPage renders one article as markdown with its outbound link set.
// Implements wikibench.PageSource.
func (c *Client) FetchPage(ctx context.Context, title string) (wikibench.Page, error) {
	html, err := c.PageHTML(ctx, title)
	if err != nil {
		return wikibench.Page{}, err
	}
	if strings.TrimSpace(html) == "" {
		return wikibench.Page{}, fmt.Errorf("%w: %s (empty page)", ErrNotFound, title)
	}

	converter := md.NewConverter("", true, &md.Options{
		HeadingStyle:     "atx",
		BulletListMarker: "-",
	})
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return wikibench.Page{}, fmt.Errorf("wikipedia: render %q: %w", title, err)
	}
	markdown = cleanMarkdown(markdown)

	return wikibench.Page{
		Ref:      wikibench.ArticleRef{Title: title, URL: c.ArticleURL(title)},
		Markdown: markdown,
		Links:    ExtractLinks(markdown),
	}, nil
}

var (
	reBlankLines = regexp.MustCompile(`\n{3,}`)
	reEditLink   = regexp.MustCompile(`\[edit\]`)
	reEmptyLink  = regexp.MustCompile(`\[\]\([^)]*\)`)
	reRefMarker  = regexp.MustCompile(`\[\d+\]`)
	reShowHide   = regexp.MustCompile(`\[(?:show|hide)\]`)
)

// cleanMarkdown strips Wikipedia chrome the converter leaves behind:
// [edit] links, [1]-style reference markers, [show]/[hide] toggles,
// empty links, trailing whitespace, and runs of blank lines.
func cleanMarkdown(markdown string) string {
	s := reEditLink.ReplaceAllString(markdown, "")
	s = reEmptyLink.ReplaceAllString(s, "")
	s = reRefMarker.ReplaceAllString(s, "")
	s = reShowHide.ReplaceAllString(s, "")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	s = strings.Join(lines, "\n")
	s = reBlankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
