package wikibench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakePages serves Pages built from an adjacency map. Each page's
// markdown lists its links so prompts look realistic.
type fakePages struct {
	adj map[string][]string
}

func (f *fakePages) FetchPage(ctx context.Context, title string) (Page, error) {
	links, ok := f.adj[title]
	if !ok {
		return Page{}, fmt.Errorf("no such page: %s", title)
	}
	page := Page{
		Ref: ArticleRef{Title: title, URL: "https://en.wikipedia.org/wiki/" + strings.ReplaceAll(title, " ", "_")},
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	for _, link := range links {
		href := "/wiki/" + strings.ReplaceAll(link, " ", "_")
		fmt.Fprintf(&b, "- [%s](%s)\n", link, href)
		page.Links = append(page.Links, Link{Text: link, URL: href, Title: link})
	}
	page.Markdown = b.String()
	return page, nil
}

// scriptedDecider replays canned responses in order, then repeats the
// last one.
type scriptedDecider struct {
	responses []string
	calls     int
}

func (d *scriptedDecider) Decide(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	i := d.calls
	d.calls++
	if i >= len(d.responses) {
		i = len(d.responses) - 1
	}
	if i < 0 {
		return "", errors.New("no scripted responses")
	}
	return d.responses[i], nil
}

type erroringDecider struct{ err error }

func (d *erroringDecider) Decide(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return "", d.err
}

func choose(title string) string {
	return fmt.Sprintf("I'll go with [%s](/wiki/%s).", title, strings.ReplaceAll(title, " ", "_"))
}

func TestClassifyDirection(t *testing.T) {
	cases := []struct {
		before, after int
		want          Direction
	}{
		{4, 3, DirectionForward},
		{4, 4, DirectionNeutral},
		{4, 5, DirectionBackwards},
		{1, 0, DirectionForward},
		{Unreachable, 3, DirectionForward},
	}
	for _, tc := range cases {
		if got := ClassifyDirection(tc.before, tc.after); got != tc.want {
			t.Errorf("ClassifyDirection(%d, %d) = %s, want %s", tc.before, tc.after, got, tc.want)
		}
	}
}

func TestSessionSolvesShortestPath(t *testing.T) {
	adj := testGraph()
	pages := &fakePages{adj: adj}
	oracle := NewOracle(newMapGraph(adj))
	decider := &scriptedDecider{responses: []string{choose("Dog"), choose("Wolf")}}

	session := NewSession(pages, oracle, decider,
		ArticleRef{Title: "Animal"}, ArticleRef{Title: "Wolf"}, 30, "", quietLogger())
	out := session.Run(context.Background())

	if !out.Solved {
		t.Fatalf("not solved: state=%s err=%v", out.State, out.Err)
	}
	if out.TotalClicks != 2 {
		t.Errorf("total clicks = %d, want 2", out.TotalClicks)
	}
	if len(out.Steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(out.Steps))
	}
	for i, step := range out.Steps {
		if step.Index != i {
			t.Errorf("step %d has index %d", i, step.Index)
		}
		if !step.Valid {
			t.Errorf("step %d marked invalid", i)
		}
		if step.Direction != DirectionForward {
			t.Errorf("step %d direction = %s, want forward", i, step.Direction)
		}
	}
	wantPath := []string{"Animal", "Dog", "Wolf"}
	if len(out.Path) != len(wantPath) {
		t.Fatalf("path = %v, want %v", out.Path, wantPath)
	}
	for i := range wantPath {
		if out.Path[i] != wantPath[i] {
			t.Errorf("path[%d] = %q, want %q", i, out.Path[i], wantPath[i])
		}
	}
}

func TestSessionDetourIsBackwards(t *testing.T) {
	adj := map[string][]string{
		"Start":  {"Target", "Detour"},
		"Detour": {"Start"},
		"Target": {},
	}
	pages := &fakePages{adj: adj}
	oracle := NewOracle(newMapGraph(adj))
	decider := &scriptedDecider{responses: []string{
		choose("Detour"), choose("Start"), choose("Target"),
	}}

	session := NewSession(pages, oracle, decider,
		ArticleRef{Title: "Start"}, ArticleRef{Title: "Target"}, 30, "", quietLogger())
	out := session.Run(context.Background())

	if !out.Solved || out.TotalClicks != 3 {
		t.Fatalf("solved=%t clicks=%d, want solved in 3", out.Solved, out.TotalClicks)
	}
	wantDirs := []Direction{DirectionBackwards, DirectionForward, DirectionForward}
	for i, step := range out.Steps {
		if step.Direction != wantDirs[i] {
			t.Errorf("step %d direction = %s, want %s", i, step.Direction, wantDirs[i])
		}
	}
	if out.Steps[0].DistanceBefore != 1 || out.Steps[0].DistanceAfter != 2 {
		t.Errorf("detour distances = %d -> %d, want 1 -> 2",
			out.Steps[0].DistanceBefore, out.Steps[0].DistanceAfter)
	}
}

func TestSessionInvalidChoicesExhaustBudget(t *testing.T) {
	adj := testGraph()
	pages := &fakePages{adj: adj}
	oracle := NewOracle(newMapGraph(adj))
	decider := &scriptedDecider{responses: []string{"Hmm, none of these look promising."}}

	budget := 30
	session := NewSession(pages, oracle, decider,
		ArticleRef{Title: "Animal"}, ArticleRef{Title: "Paris"}, budget, "", quietLogger())
	out := session.Run(context.Background())

	if out.Solved {
		t.Fatal("solved with no valid moves")
	}
	if out.State != StateBudgetExhausted {
		t.Errorf("state = %s, want budget_exhausted", out.State)
	}
	if out.TotalClicks != budget {
		t.Errorf("total clicks = %d, want %d", out.TotalClicks, budget)
	}
	if len(out.Steps) != budget {
		t.Fatalf("steps = %d, want %d", len(out.Steps), budget)
	}
	for i, step := range out.Steps {
		if step.Valid {
			t.Errorf("step %d marked valid", i)
		}
		if step.Index != i {
			t.Errorf("step %d has index %d", i, step.Index)
		}
		if step.Direction != DirectionNeutral {
			t.Errorf("step %d direction = %s, want neutral", i, step.Direction)
		}
		if step.DistanceAfter != step.DistanceBefore {
			t.Errorf("step %d distance changed on invalid choice", i)
		}
	}
}

func TestSessionLinkNotOnPageIsInvalid(t *testing.T) {
	adj := testGraph()
	pages := &fakePages{adj: adj}
	oracle := NewOracle(newMapGraph(adj))
	// Paris is a real article but not linked from Animal.
	decider := &scriptedDecider{responses: []string{choose("Paris"), choose("Dog"), choose("Wolf")}}

	session := NewSession(pages, oracle, decider,
		ArticleRef{Title: "Animal"}, ArticleRef{Title: "Wolf"}, 30, "", quietLogger())
	out := session.Run(context.Background())

	if !out.Solved || out.TotalClicks != 3 {
		t.Fatalf("solved=%t clicks=%d, want solved in 3", out.Solved, out.TotalClicks)
	}
	if out.Steps[0].Valid {
		t.Error("off-page link accepted as valid")
	}
	if !out.Steps[1].Valid || !out.Steps[2].Valid {
		t.Error("on-page links rejected")
	}
}

func TestSessionAbsoluteURLMatchesRelativeLink(t *testing.T) {
	adj := testGraph()
	pages := &fakePages{adj: adj}
	oracle := NewOracle(newMapGraph(adj))
	decider := &scriptedDecider{responses: []string{
		"[Dog](https://en.wikipedia.org/wiki/Dog)",
		"[Wolf](/wiki/Wolf/)", // trailing slash
	}}

	session := NewSession(pages, oracle, decider,
		ArticleRef{Title: "Animal"}, ArticleRef{Title: "Wolf"}, 30, "", quietLogger())
	out := session.Run(context.Background())

	if !out.Solved {
		t.Fatalf("not solved: %+v", out)
	}
	if out.TotalClicks != 2 {
		t.Errorf("total clicks = %d, want 2", out.TotalClicks)
	}
}

func TestSessionFatalOnDecisionError(t *testing.T) {
	adj := testGraph()
	pages := &fakePages{adj: adj}
	oracle := NewOracle(newMapGraph(adj))
	decider := &erroringDecider{err: errors.New("provider down")}

	budget := 30
	session := NewSession(pages, oracle, decider,
		ArticleRef{Title: "Animal"}, ArticleRef{Title: "Wolf"}, budget, "", quietLogger())
	out := session.Run(context.Background())

	if out.State != StateFatalError {
		t.Errorf("state = %s, want fatal_error", out.State)
	}
	if out.Solved {
		t.Error("fatal session reported solved")
	}
	if out.TotalClicks != budget {
		t.Errorf("total clicks = %d, want full budget %d", out.TotalClicks, budget)
	}
	if out.Err == nil {
		t.Error("fatal outcome carries no error")
	}
}

func TestSessionFatalOnMissingStartPage(t *testing.T) {
	pages := &fakePages{adj: map[string][]string{}}
	oracle := NewOracle(newMapGraph(testGraph()))
	decider := &scriptedDecider{responses: []string{choose("Dog")}}

	session := NewSession(pages, oracle, decider,
		ArticleRef{Title: "Nowhere"}, ArticleRef{Title: "Wolf"}, 30, "", quietLogger())
	out := session.Run(context.Background())

	if out.State != StateFatalError {
		t.Errorf("state = %s, want fatal_error", out.State)
	}
	if len(out.Steps) != 0 {
		t.Errorf("steps recorded before the session began: %d", len(out.Steps))
	}
}
