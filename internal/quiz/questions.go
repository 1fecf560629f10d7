package quiz

import (
	"html"
	"math/rand"
	"strings"

	"github.com/golang/glog"

	"classquiz/internal/opentdb"
)

const OptionCount = 4

// Labels name the option positions in display order.
var Labels = [OptionCount]string{"A", "B", "C", "D"}

type Question struct {
	Text    string   `json:"q"`
	Options []string `json:"options"`
	Correct string   `json:"correct"`
}

// NewManualQuestion builds a teacher-authored question. A correct label
// outside A-D falls back to A.
func NewManualQuestion(text string, options [OptionCount]string, correct string) Question {
	trimmed := make([]string, 0, OptionCount)
	for _, option := range options {
		trimmed = append(trimmed, strings.TrimSpace(option))
	}

	label := NormalizeLabel(correct)
	if label == "" {
		label = Labels[0]
	}

	return Question{
		Text:    strings.TrimSpace(text),
		Options: trimmed,
		Correct: label,
	}
}

func BuildQuestions(raw []opentdb.RawQuestion) []Question {
	questions := make([]Question, 0, len(raw))
	for _, item := range raw {
		if len(item.IncorrectAnswers) != OptionCount-1 {
			glog.Warningf("skipping provider question with %d incorrect answers", len(item.IncorrectAnswers))
			continue
		}
		questions = append(questions, buildQuestion(item))
	}
	return questions
}

// NormalizeLabel returns the canonical option label for answer, or "" when
// answer does not name one of the four options.
func NormalizeLabel(answer string) string {
	letter := strings.ToUpper(strings.TrimSpace(answer))
	if LabelIndex(letter) < 0 {
		return ""
	}
	return letter
}

// LabelIndex maps "A".."D" to 0..3 and anything else to -1.
func LabelIndex(label string) int {
	for idx, candidate := range Labels {
		if candidate == label {
			return idx
		}
	}
	return -1
}

func (q Question) validate() error {
	if len(q.Options) != OptionCount {
		return ErrInvalidQuestion
	}
	if LabelIndex(q.Correct) < 0 {
		return ErrInvalidQuestion
	}
	return nil
}

func buildQuestion(raw opentdb.RawQuestion) Question {
	type choice struct {
		text      string
		isCorrect bool
	}

	choices := make([]choice, 0, len(raw.IncorrectAnswers)+1)
	for _, incorrect := range raw.IncorrectAnswers {
		choices = append(choices, choice{
			text:      html.UnescapeString(incorrect),
			isCorrect: false,
		})
	}

	choices = append(choices, choice{
		text:      html.UnescapeString(raw.CorrectAnswer),
		isCorrect: true,
	})

	rand.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})

	options := make([]string, len(choices))
	correct := ""
	for idx, candidate := range choices {
		options[idx] = candidate.text
		if candidate.isCorrect {
			correct = Labels[idx]
		}
	}

	return Question{
		Text:    html.UnescapeString(raw.Question),
		Options: options,
		Correct: correct,
	}
}
