package quiz

import "sort"

// Score counts questions whose submitted label equals the stored correct
// label. answers is keyed by 1-based question position. An unanswered
// question never scores, even when the stored label is empty.
func Score(questions []Question, answers map[int]string) int {
	score := 0
	for idx, question := range questions {
		answer, ok := answers[idx+1]
		if ok && answer != "" && answer == question.Correct {
			score++
		}
	}
	return score
}

// RankResults orders results by score descending. The sort is stable, so
// earlier attempts stay ahead of later ones with the same score.
func RankResults(results []Result) []Result {
	ranked := make([]Result, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

func applyLeaderboardLimit(entries []Result, limit int) []Result {
	if limit <= 0 || limit >= len(entries) {
		return entries
	}
	return entries[:limit]
}

// FirstScore returns the score of the first result recorded for student.
func FirstScore(results []Result, student string) (int, bool) {
	for _, result := range results {
		if result.Student == student {
			return result.Score, true
		}
	}
	return 0, false
}
