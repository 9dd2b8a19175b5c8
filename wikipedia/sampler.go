package wikipedia

import (
	"context"
	"strings"
	"time"

	"github.com/wikibench/wikibench"
)

// Sampler draws random valid article pairs for benchmark attempts.
// Implements wikibench.PairSampler.
type Sampler struct {
	client *Client
	cutoff time.Time
}

// NewSampler constructs a Sampler. cutoff is the creation-date boundary
// used by post-cutoff sampling.
func NewSampler(client *Client, cutoff time.Time) *Sampler {
	return &Sampler{client: client, cutoff: cutoff}
}

// SamplePairs draws count (start, target) pairs of valid articles. With
// postCutoffOnly, both articles of every pair were created after the
// cutoff date. Returns fewer pairs if the sampling budget runs out.
func (s *Sampler) SamplePairs(ctx context.Context, count int, postCutoffOnly bool) ([]wikibench.Pair, error) {
	maxRounds := 100
	if postCutoffOnly {
		// Post-cutoff articles are rare among random draws.
		maxRounds = 200
	}

	articles, err := s.sampleValid(ctx, count*2, postCutoffOnly, maxRounds)
	if err != nil {
		return nil, err
	}

	pairs := make([]wikibench.Pair, 0, count)
	for i := 0; i+1 < len(articles) && len(pairs) < count; i += 2 {
		pairs = append(pairs, wikibench.Pair{
			Start:  wikibench.ArticleRef{Title: articles[i], URL: s.client.ArticleURL(articles[i])},
			Target: wikibench.ArticleRef{Title: articles[i+1], URL: s.client.ArticleURL(articles[i+1])},
		})
	}
	return pairs, nil
}

func (s *Sampler) sampleValid(ctx context.Context, count int, postCutoffOnly bool, maxRounds int) ([]string, error) {
	var valid []string
	for round := 0; len(valid) < count && round < maxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch := (count - len(valid)) * 3
		if batch > 20 {
			batch = 20
		}
		candidates, err := s.client.RandomTitles(ctx, batch)
		if err != nil {
			return nil, err
		}
		for _, title := range candidates {
			if len(valid) >= count {
				break
			}
			ok, err := s.isValid(ctx, title)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			if postCutoffOnly {
				created, exists, err := s.client.CreationDate(ctx, title)
				if err != nil {
					return nil, err
				}
				if !exists || !created.After(s.cutoff) {
					continue
				}
			}
			valid = append(valid, title)
		}
	}
	return valid, nil
}

// isValid filters out disambiguation pages and list articles, which
// make degenerate game targets.
func (s *Sampler) isValid(ctx context.Context, title string) (bool, error) {
	if strings.HasPrefix(title, "List of ") || strings.Contains(title, "(disambiguation)") {
		return false, nil
	}
	disambig, err := s.client.IsDisambiguation(ctx, title)
	if err != nil {
		return false, err
	}
	return !disambig, nil
}
