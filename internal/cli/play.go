package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"classquiz/internal/quiz"
)

const maxAttempts = 3

// playCommand runs a stored quiz in the terminal and records the attempt
// like a browser submission would.
func (a *app) playCommand() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "play <code>",
		Short: "take a quiz in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.quizzes.GetQuiz(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			answers := ask(bufio.NewReader(a.in), a.out, q.Questions)
			score, err := a.quizzes.SubmitAttempt(cmd.Context(), q.Code, name, answers)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "\nFinal score: %d/%d\n", score, len(q.Questions))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Guest", "name recorded with the result")
	return cmd
}

// ask prompts for every question and returns the 1-based answers. A
// question the player skips or answers badly three times stays unanswered.
func ask(reader *bufio.Reader, out io.Writer, questions []quiz.Question) map[int]string {
	answers := make(map[int]string, len(questions))
	for idx, question := range questions {
		printQuestion(out, idx+1, question)

		label, ok := getAnswer(reader, out, len(question.Options))
		fmt.Fprintln(out)
		if !ok {
			fmt.Fprintln(out, "Skipping.")
			continue
		}
		answers[idx+1] = label
	}
	return answers
}

func printQuestion(out io.Writer, number int, question quiz.Question) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Q%d: %s\n\n", number, question.Text)
	for idx, option := range question.Options {
		if idx >= len(quiz.Labels) {
			break
		}
		fmt.Fprintf(out, "%s. %s\n", quiz.Labels[idx], option)
	}
	fmt.Fprintln(out)
}

func getAnswer(reader *bufio.Reader, out io.Writer, optionCount int) (string, bool) {
	if optionCount < 1 {
		return "", false
	}
	if optionCount > len(quiz.Labels) {
		optionCount = len(quiz.Labels)
	}
	maxLabel := quiz.Labels[optionCount-1]

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", false
		}

		answer := strings.ToUpper(strings.TrimSpace(line))
		if idx := quiz.LabelIndex(answer); idx >= 0 && idx < optionCount {
			return answer, true
		}

		if attempt < maxAttempts && err == nil {
			fmt.Fprintf(out, "\nInvalid input. Please enter a letter A-%s.\n", maxLabel)
		}
		if err != nil {
			return "", false
		}
	}

	return "", false
}
