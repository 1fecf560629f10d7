package httpapi

import (
	"classquiz/internal/quiz"
	"classquiz/internal/session"
	"classquiz/internal/users"
)

// API holds the collaborators every page handler needs.
type API struct {
	users    *users.Service
	quizzes  *quiz.Service
	sessions *session.Manager
	pages    *pageSet
}

func NewAPI(userService *users.Service, quizService *quiz.Service, sessions *session.Manager) (*API, error) {
	pages, err := loadPages()
	if err != nil {
		return nil, err
	}
	return &API{
		users:    userService,
		quizzes:  quizService,
		sessions: sessions,
		pages:    pages,
	}, nil
}
