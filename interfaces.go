package wikibench

import (
	"context"
	"strings"
)

// ArticleRef identifies one article of the link graph by its title and
// canonical URL. Immutable once obtained.
type ArticleRef struct {
	Title string
	URL   string
}

// Link is one outbound hyperlink of a page: the anchor text, the href as
// it appears in the page markdown, and the resolved article title.
type Link struct {
	Text  string
	URL   string
	Title string
}

// Page is one fetched article together with its outbound link set, as
// observed at fetch time.
type Page struct {
	Ref      ArticleRef
	Markdown string
	Links    []Link
}

// Pair is one (start, target) article pair for a benchmark attempt.
type Pair struct {
	Start  ArticleRef
	Target ArticleRef
}

// LinkSource provides the outbound link titles of an article. It is
// treated as a remote, rate-limited, occasionally-failing service; the
// Oracle caches its answers for the process lifetime. Implementations
// resolve title variants (letter case, underscores, redirects) to the
// canonical article, the way the MediaWiki API normalizes queried
// titles, so a query for "animal" answers for "Animal".
type LinkSource interface {
	OutboundLinks(ctx context.Context, title string) ([]string, error)
}

// PageSource renders an article with its link set for the player.
type PageSource interface {
	FetchPage(ctx context.Context, title string) (Page, error)
}

// PairSampler draws benchmark article pairs.
type PairSampler interface {
	SamplePairs(ctx context.Context, count int, postCutoffOnly bool) ([]Pair, error)
}

// DecisionProvider is implemented by the agent under test. Given the
// rendered game state it returns the raw model response, from which the
// session parses the chosen link. Malformed responses are tolerated as
// invalid choices; errors are retried by the attempt runner and then
// escalate to a session fatal error.
type DecisionProvider interface {
	Decide(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ProviderFactory builds the decision provider for one model under one
// condition. Conditions vary reasoning settings, not the provider shape.
type ProviderFactory func(model string, cond ConditionConfig) DecisionProvider

// NormalizeTitle folds an article title for identity comparison:
// lowercase, underscores to spaces, surrounding whitespace removed.
func NormalizeTitle(title string) string {
	return strings.TrimSpace(strings.ToLower(strings.ReplaceAll(title, "_", " ")))
}

// TitlesMatch reports whether two titles refer to the same article.
func TitlesMatch(a, b string) bool {
	return NormalizeTitle(a) == NormalizeTitle(b)
}
