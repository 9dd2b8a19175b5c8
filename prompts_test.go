package wikibench

import (
	"strings"
	"testing"
)

func TestParseChosenLink(t *testing.T) {
	cases := []struct {
		name     string
		response string
		wantHref string
		wantOK   bool
	}{
		{
			name:     "bare link",
			response: "[Dog](/wiki/Dog)",
			wantHref: "/wiki/Dog",
			wantOK:   true,
		},
		{
			name:     "link with commentary",
			response: "Dogs lead toward animals. [Dog](/wiki/Dog)",
			wantHref: "/wiki/Dog",
			wantOK:   true,
		},
		{
			name:     "title attribute stripped",
			response: `[Dog](/wiki/Dog "Dog")`,
			wantHref: "/wiki/Dog",
			wantOK:   true,
		},
		{
			name:     "multiple links falls back to first wikipedia link",
			response: "[see here](https://example.com) then [Dog](/wiki/Dog) or [Cat](/wiki/Cat)",
			wantHref: "/wiki/Dog",
			wantOK:   true,
		},
		{
			name:     "multiple non-wikipedia links rejected",
			response: "[a](https://example.com) [b](https://example.org)",
			wantOK:   false,
		},
		{
			name:     "no link",
			response: "I would click on Dog.",
			wantOK:   false,
		},
		{
			name:     "absolute wikipedia url",
			response: "[Dog](https://en.wikipedia.org/wiki/Dog)",
			wantHref: "https://en.wikipedia.org/wiki/Dog",
			wantOK:   true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, href, ok := ParseChosenLink(tc.response)
			if ok != tc.wantOK {
				t.Fatalf("ok = %t, want %t", ok, tc.wantOK)
			}
			if ok && href != tc.wantHref {
				t.Errorf("href = %q, want %q", href, tc.wantHref)
			}
		})
	}
}

func TestSystemPromptNamesTarget(t *testing.T) {
	p := SystemPrompt("Wolf")
	if !strings.Contains(p, "Target article: Wolf") {
		t.Error("system prompt does not name the target")
	}
	if !strings.Contains(p, "EXACTLY ONE markdown link") {
		t.Error("system prompt does not demand a single link")
	}
}

func TestUserPromptIncludesHistoryAndContent(t *testing.T) {
	page := Page{
		Ref:      ArticleRef{Title: "Dog"},
		Markdown: "# Dog\n\n- [Wolf](/wiki/Wolf)",
	}
	p := UserPrompt(page, []string{"Animal", "Dog"}, "Wolf")
	if !strings.Contains(p, "Current article: Dog") {
		t.Error("missing current article")
	}
	if !strings.Contains(p, "Animal -> Dog") {
		t.Error("missing visit history")
	}
	if !strings.Contains(p, "[Wolf](/wiki/Wolf)") {
		t.Error("missing page content")
	}
}

func TestPeerPressurePreamble(t *testing.T) {
	p := PeerPressurePreamble("Test Model", []string{"Rival A", "Rival B"}, "Animal", "Wolf", 2)
	for _, want := range []string{"Test Model", "Rival A", "Rival B", "Animal", "Wolf", "optimal route takes 2 clicks"} {
		if !strings.Contains(p, want) {
			t.Errorf("preamble missing %q", want)
		}
	}

	// Unreachable pairs must not quote a bogus optimal length.
	p = PeerPressurePreamble("Test Model", nil, "Animal", "Wolf", Unreachable)
	if strings.Contains(p, "optimal route") {
		t.Error("preamble quotes an optimal length for an unreachable pair")
	}
}

func TestTipsRequestPromptReflectsOutcome(t *testing.T) {
	won := TipsRequestPrompt(true, []string{"Animal", "Dog", "Wolf"}, "Wolf")
	if !strings.Contains(won, "reached the target") {
		t.Error("winning prompt does not say so")
	}
	lost := TipsRequestPrompt(false, []string{"Animal"}, "Wolf")
	if !strings.Contains(lost, "failed to reach the target") {
		t.Error("losing prompt does not say so")
	}
	if !strings.Contains(won, "Animal -> Dog -> Wolf") {
		t.Error("prompt missing the route")
	}
}
