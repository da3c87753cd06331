package question

import (
	"context"
	"math/rand/v2"
)

// Selector draws unseen questions for a player. The pool size is captured
// once at construction; the repository is append-only at runtime so a stale
// count only hides questions added after startup.
type Selector struct {
	repo *Repository
	size int
	intN func(int) int
}

func NewSelector(ctx context.Context, repo *Repository) (*Selector, error) {
	size, err := repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &Selector{repo: repo, size: size, intN: rand.IntN}, nil
}

func (s *Selector) PoolSize() int {
	return s.size
}

// Pick draws a uniformly random question id not present in seen and fetches
// its body. Returns ErrExhausted when seen already covers the whole pool;
// callers fall back to treating the lane as empty.
func (s *Selector) Pick(ctx context.Context, seen map[int]struct{}) (Question, int, error) {
	if len(seen) >= s.size {
		return Question{}, 0, ErrExhausted
	}

	id := s.intN(s.size) + 1
	for {
		if _, asked := seen[id]; !asked {
			break
		}
		id = s.intN(s.size) + 1
	}

	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return Question{}, 0, err
	}
	return q, id, nil
}
