package quiz

import (
	"context"
	"sort"
)

const bestAttemptsLimit = 10

type CreatedQuiz struct {
	Code      string
	Title     string
	TimeLimit int
}

type AttemptedQuiz struct {
	Code  string
	Title string
	Score int
}

type Profile struct {
	Username  string
	Created   []CreatedQuiz
	Attempted []AttemptedQuiz
	Best      []AttemptedQuiz
}

// Profile collects the quizzes username authored and every result recorded
// under that name. Best holds the ten highest attempts.
func (s *Service) Profile(ctx context.Context, username string) (Profile, error) {
	quizzes, err := s.quizzes.ListQuizzes(ctx)
	if err != nil {
		return Profile{}, err
	}

	profile := Profile{
		Username:  username,
		Created:   []CreatedQuiz{},
		Attempted: []AttemptedQuiz{},
	}
	for _, quiz := range quizzes {
		if quiz.CreatedBy == username {
			profile.Created = append(profile.Created, CreatedQuiz{
				Code:      quiz.Code,
				Title:     quiz.Title,
				TimeLimit: quiz.TimeLimit,
			})
		}
		for _, result := range quiz.Results {
			if result.Student == username {
				profile.Attempted = append(profile.Attempted, AttemptedQuiz{
					Code:  quiz.Code,
					Title: quiz.Title,
					Score: result.Score,
				})
			}
		}
	}

	best := make([]AttemptedQuiz, len(profile.Attempted))
	copy(best, profile.Attempted)
	sort.SliceStable(best, func(i, j int) bool {
		return best[i].Score > best[j].Score
	})
	if len(best) > bestAttemptsLimit {
		best = best[:bestAttemptsLimit]
	}
	profile.Best = best

	return profile, nil
}
