package wikibench

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// SessionState is the tagged state of a navigation session.
type SessionState int

const (
	StateStart SessionState = iota
	StateAwaitingDecision
	StateValidating
	StateAdvanced
	StateInvalidChoice
	StateSolved
	StateBudgetExhausted
	StateFatalError
)

func (s SessionState) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateAwaitingDecision:
		return "awaiting_decision"
	case StateValidating:
		return "validating"
	case StateAdvanced:
		return "advanced"
	case StateInvalidChoice:
		return "invalid_choice"
	case StateSolved:
		return "solved"
	case StateBudgetExhausted:
		return "budget_exhausted"
	case StateFatalError:
		return "fatal_error"
	}
	return "unknown"
}

// Direction classifies one step by its effect on the oracle distance to
// the target.
type Direction string

const (
	DirectionForward   Direction = "forward"
	DirectionNeutral   Direction = "neutral"
	DirectionBackwards Direction = "backwards"
)

// ClassifyDirection compares the distance to target before and after a
// step: strictly smaller is forward, strictly larger is backwards,
// unchanged is neutral.
func ClassifyDirection(before, after int) Direction {
	switch {
	case after < before:
		return DirectionForward
	case after > before:
		return DirectionBackwards
	default:
		return DirectionNeutral
	}
}

// Outcome is the terminal result of one session. It is always complete:
// fatal errors are folded in rather than escaping to the caller.
type Outcome struct {
	State       SessionState
	Solved      bool
	TotalClicks int
	Steps       []StepRecord
	Path        []string
	Err         error // non-nil only when State is StateFatalError
}

// Session drives one agent from a start article toward a target through
// successive "choose the next link" decisions. Each decision is
// validated against the current page's actual link set; a valid choice
// advances the session, an invalid one is recorded and still consumes a
// click. The session terminates on success, click-budget exhaustion, or
// an unrecoverable provider/oracle failure.
type Session struct {
	pages   PageSource
	oracle  *Oracle
	decider DecisionProvider
	logger  *slog.Logger

	start        ArticleRef
	target       ArticleRef
	clickBudget  int
	systemPrompt string

	state    SessionState
	current  Page
	distance int // oracle distance from current page to target
	clicks   int
	steps    []StepRecord
	path     []string
}

// NewSession prepares a session; Run plays it.
func NewSession(pages PageSource, oracle *Oracle, decider DecisionProvider, start, target ArticleRef, clickBudget int, systemPrompt string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if clickBudget <= 0 {
		clickBudget = DefaultClickBudget
	}
	if systemPrompt == "" {
		systemPrompt = SystemPrompt(target.Title)
	}
	return &Session{
		pages:        pages,
		oracle:       oracle,
		decider:      decider,
		logger:       logger,
		start:        start,
		target:       target,
		clickBudget:  clickBudget,
		systemPrompt: systemPrompt,
		state:        StateStart,
	}
}

// Run plays the session to a terminal state. Steps are strictly ordered
// with no index gaps. An unsolved session reports the full click budget
// as its total regardless of how it ended.
func (s *Session) Run(ctx context.Context) Outcome {
	if err := s.begin(ctx); err != nil {
		return s.fatal(err)
	}

	for s.clicks < s.clickBudget {
		s.state = StateAwaitingDecision
		raw, err := s.decider.Decide(ctx, s.systemPrompt, UserPrompt(s.current, s.path, s.target.Title))
		if err != nil {
			return s.fatal(fmt.Errorf("decide on %q: %w", s.current.Ref.Title, err))
		}

		s.state = StateValidating
		if err := s.applyDecision(ctx, raw); err != nil {
			return s.fatal(err)
		}
		if s.state == StateSolved {
			return s.outcome()
		}
	}

	s.state = StateBudgetExhausted
	return s.outcome()
}

func (s *Session) begin(ctx context.Context) error {
	page, err := s.pages.FetchPage(ctx, s.start.Title)
	if err != nil {
		return fmt.Errorf("start page %q: %w", s.start.Title, err)
	}
	dist, err := s.oracle.Distance(ctx, s.start.Title, s.target.Title)
	if err != nil {
		return err
	}
	s.current = page
	s.distance = dist
	s.path = []string{s.start.Title}
	return nil
}

// applyDecision is the transition out of Validating: it records exactly
// one step and moves the machine to InvalidChoice, Advanced, or Solved.
// Oracle or page-fetch failures surface as errors and become fatal.
func (s *Session) applyDecision(ctx context.Context, raw string) error {
	step := StepRecord{
		Index:          s.clicks,
		From:           s.current.Ref,
		DistanceBefore: s.distance,
		Timestamp:      time.Now().UTC(),
	}
	s.clicks++

	link, ok := s.matchLink(raw)
	if !ok {
		step.Valid = false
		step.DistanceAfter = s.distance
		step.Direction = DirectionNeutral
		s.steps = append(s.steps, step)
		s.state = StateInvalidChoice
		s.logger.Debug("invalid choice",
			"page", s.current.Ref.Title, "clicks", s.clicks, "response_len", len(raw))
		return nil
	}

	after, err := s.oracle.Distance(ctx, link.Title, s.target.Title)
	if err != nil {
		return err
	}

	step.Valid = true
	step.Chosen = link
	step.DistanceAfter = after
	step.Direction = ClassifyDirection(s.distance, after)
	s.steps = append(s.steps, step)
	s.path = append(s.path, link.Title)
	s.logger.Debug("step",
		"from", s.current.Ref.Title, "to", link.Title,
		"direction", string(step.Direction), "distance", after)

	if TitlesMatch(link.Title, s.target.Title) {
		s.state = StateSolved
		return nil
	}

	next, err := s.pages.FetchPage(ctx, link.Title)
	if err != nil {
		return fmt.Errorf("page %q: %w", link.Title, err)
	}
	s.current = next
	s.distance = after
	s.state = StateAdvanced
	return nil
}

// matchLink parses the raw model response and checks membership in the
// current page's link set. Titles and URLs are normalized before
// comparison; models sometimes add or drop trailing slashes.
func (s *Session) matchLink(raw string) (Link, bool) {
	_, href, ok := ParseChosenLink(raw)
	if !ok {
		return Link{}, false
	}
	want := strings.TrimRight(strings.TrimSpace(href), "/")
	for _, link := range s.current.Links {
		if strings.TrimRight(link.URL, "/") == want {
			return link, true
		}
	}
	// Fall back to title identity for absolute-vs-relative URL drift.
	for _, link := range s.current.Links {
		if link.Title != "" && TitlesMatch(link.Title, titleFromHref(href)) {
			return link, true
		}
	}
	return Link{}, false
}

// titleFromHref recovers an article title from a /wiki/ style href for
// the lenient membership check.
func titleFromHref(href string) string {
	cleaned := strings.TrimRight(strings.TrimSpace(href), "/")
	if idx := strings.LastIndex(cleaned, "/wiki/"); idx >= 0 {
		cleaned = cleaned[idx+len("/wiki/"):]
	}
	if idx := strings.IndexByte(cleaned, '#'); idx >= 0 {
		cleaned = cleaned[:idx]
	}
	return strings.ReplaceAll(cleaned, "_", " ")
}

func (s *Session) fatal(err error) Outcome {
	s.state = StateFatalError
	s.logger.Warn("session fatal",
		"start", s.start.Title, "target", s.target.Title, "error", err)
	out := s.outcome()
	out.Err = err
	return out
}

func (s *Session) outcome() Outcome {
	solved := s.state == StateSolved
	total := s.clickBudget
	if solved {
		total = s.clicks
	}
	return Outcome{
		State:       s.state,
		Solved:      solved,
		TotalClicks: total,
		Steps:       s.steps,
		Path:        s.path,
	}
}
