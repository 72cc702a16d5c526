package app

import (
	"context"
	"sync"

	"pair-quiz-service/internal/domain"
)

// Watch returns a channel that receives a game snapshot after every mutation
// of the caller's current game. The caller must invoke the returned cancel
// function to avoid leaks.
func (s *QuizService) Watch(ctx context.Context, userID string) (<-chan domain.GameSnapshot, func(), error) {
	_, game, err := s.resolveCurrent(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	ch, cancel := s.watchers.subscribe(game.ID)
	ch <- domain.SnapshotOf(game)
	return ch, cancel, nil
}

// watchHub fans game snapshots out to per-game subscribers. Slow consumers
// get stale snapshots dropped rather than blocking the publisher.
type watchHub struct {
	mu   sync.Mutex
	subs map[string]map[chan domain.GameSnapshot]struct{}
}

func newWatchHub() *watchHub {
	return &watchHub{subs: make(map[string]map[chan domain.GameSnapshot]struct{})}
}

func (h *watchHub) subscribe(gameID string) (chan domain.GameSnapshot, func()) {
	ch := make(chan domain.GameSnapshot, 8)

	h.mu.Lock()
	if h.subs[gameID] == nil {
		h.subs[gameID] = make(map[chan domain.GameSnapshot]struct{})
	}
	h.subs[gameID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[gameID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subs, gameID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *watchHub) publish(gameID string, snap domain.GameSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[gameID] {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
