package wikibench

import (
	"fmt"
	"regexp"
	"strings"
)

// SystemPrompt returns the base system prompt for a game toward the
// given target article.
func SystemPrompt(target string) string {
	var b strings.Builder
	b.WriteString("You are playing the Wikipedia game. Starting from the current article, ")
	b.WriteString("reach the target article using only the hyperlinks present on the page you are shown.\n\n")
	b.WriteString("Target article: ")
	b.WriteString(target)
	b.WriteString("\n\nRules:\n")
	b.WriteString("- You may only follow links that appear in the current article.\n")
	b.WriteString("- Each move costs one click; you have a limited click budget.\n")
	b.WriteString("- Respond with EXACTLY ONE markdown link copied from the article, ")
	b.WriteString("in the form [link text](/wiki/Article). No other links, no commentary.\n")
	return b.String()
}

// UserPrompt renders the current page and the visit history for the
// decision provider.
func UserPrompt(page Page, visited []string, target string) string {
	var b strings.Builder
	b.WriteString("Current article: ")
	b.WriteString(page.Ref.Title)
	b.WriteString("\nTarget article: ")
	b.WriteString(target)
	if len(visited) > 0 {
		b.WriteString("\nPages visited so far: ")
		b.WriteString(strings.Join(visited, " -> "))
	}
	b.WriteString("\n\nArticle content:\n\n")
	b.WriteString(page.Markdown)
	b.WriteString("\n\nChoose the single link that brings you closest to the target. ")
	b.WriteString("Respond with exactly one markdown link from the article above.")
	return b.String()
}

// TipsPreamble wraps previously collected tips for the tips condition.
func TipsPreamble(tips string) string {
	var b strings.Builder
	b.WriteString("Before you begin, here are tips you wrote after a previous game:\n\n")
	b.WriteString(strings.TrimSpace(tips))
	b.WriteString("\n\n")
	return b.String()
}

// PeerPressurePreamble tells the model it is racing named rivals on the
// same pair, with the optimal path length on the scoreboard.
func PeerPressurePreamble(model string, rivals []string, start, target string, bestPathLength int) string {
	var b strings.Builder
	b.WriteString("You are competing live against other AI models on this exact route: ")
	b.WriteString(start)
	b.WriteString(" to ")
	b.WriteString(target)
	b.WriteString(".\n")
	if len(rivals) > 0 {
		b.WriteString("Your rivals: ")
		b.WriteString(strings.Join(rivals, ", "))
		b.WriteString(".\n")
	}
	if bestPathLength > 0 && bestPathLength < Unreachable {
		fmt.Fprintf(&b, "The optimal route takes %d clicks. Every extra click drops you down the scoreboard.\n", bestPathLength)
	}
	b.WriteString("You are playing as ")
	b.WriteString(model)
	b.WriteString(". Do not embarrass yourself.\n\n")
	return b.String()
}

// TipsRequestPrompt asks the model to write tips after a finished game.
func TipsRequestPrompt(won bool, path []string, target string) string {
	var b strings.Builder
	b.WriteString("You just played the Wikipedia game.\n")
	if won {
		b.WriteString("You reached the target: ")
	} else {
		b.WriteString("You failed to reach the target: ")
	}
	b.WriteString(target)
	b.WriteString("\nYour route: ")
	b.WriteString(strings.Join(path, " -> "))
	b.WriteString("\n\nWrite 3-5 short, concrete tips for playing this game well. ")
	b.WriteString("The tips will be shown to a future player before their game. Plain text only.")
	return b.String()
}

var chosenLinkRegex = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

// ParseChosenLink extracts the chosen markdown link from a model
// response. Strict first: the response must contain exactly one link.
// Lenient fallback: the first link that points at a Wikipedia article.
// Title attributes that models copy from page markup are stripped.
func ParseChosenLink(response string) (text, href string, ok bool) {
	matches := chosenLinkRegex.FindAllStringSubmatch(strings.TrimSpace(response), -1)

	if len(matches) == 1 {
		return matches[0][1], stripTitleAttribute(matches[0][2]), true
	}
	for _, m := range matches {
		if strings.Contains(m[2], "wikipedia.org") || strings.HasPrefix(m[2], "/wiki/") {
			return m[1], stripTitleAttribute(m[2]), true
		}
	}
	return "", "", false
}

// stripTitleAttribute removes a trailing markdown title attribute:
// [text](/wiki/Animal "Animal") carries the href `/wiki/Animal "Animal"`.
func stripTitleAttribute(href string) string {
	if i := strings.Index(href, ` "`); i >= 0 {
		href = href[:i]
	} else if i := strings.Index(href, ` '`); i >= 0 {
		href = href[:i]
	}
	return strings.TrimSpace(href)
}
