package quiz

import "time"

// Ranked leaderboards are cached per quiz code and dropped on every accepted
// submission. Each drop bumps the code's generation, and a ranking computed
// from a read that started before the bump is not cached.

const leaderboardTTL = 5 * time.Minute

func (s *Service) getCachedLeaderboard(code string) ([]Result, bool) {
	cached, ok := s.leaderboards.Get(code)
	if !ok {
		return nil, false
	}
	ranked, ok := cached.([]Result)
	return ranked, ok
}

func (s *Service) leaderboardGeneration(code string) uint64 {
	s.generationsMu.Lock()
	defer s.generationsMu.Unlock()
	return s.generations[code]
}

// setCachedLeaderboard stores ranked only when no submission was recorded
// for code since generation was read.
func (s *Service) setCachedLeaderboard(code string, ranked []Result, generation uint64) {
	s.generationsMu.Lock()
	defer s.generationsMu.Unlock()
	if s.generations[code] != generation {
		return
	}
	s.leaderboards.SetDefault(code, ranked)
}

func (s *Service) invalidateLeaderboard(code string) {
	s.generationsMu.Lock()
	defer s.generationsMu.Unlock()
	s.generations[code]++
	s.leaderboards.Delete(code)
}
