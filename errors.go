package wikibench

import "fmt"

// GraphFetchError reports a link graph fetch failure inside an oracle
// query. The enclosing BFS fails with it; retrying or abandoning is the
// caller's responsibility.
type GraphFetchError struct {
	Title string
	Err   error
}

func (e *GraphFetchError) Error() string {
	return fmt.Sprintf("graph fetch %q: %v", e.Title, e.Err)
}

func (e *GraphFetchError) Unwrap() error { return e.Err }

// DecisionError reports a decision provider failure (timeout, API
// error) that survived the attempt runner's retry budget. A session
// receiving one terminates with StateFatalError.
type DecisionError struct {
	Err error
}

func (e *DecisionError) Error() string {
	return fmt.Sprintf("decision source: %v", e.Err)
}

func (e *DecisionError) Unwrap() error { return e.Err }
