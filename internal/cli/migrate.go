package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"classquiz/internal/quiz"
	"classquiz/internal/store/jsonfile"
	"classquiz/internal/store/sqlite"
	"classquiz/internal/users"
)

type migrateStats struct {
	usersCopied    int
	usersSkipped   int
	quizzesCopied  int
	quizzesSkipped int
}

// migrateCommand copies users.json and quizzes.json from the data directory
// into the SQLite database. Rows that already exist are left alone, so the
// command can be re-run.
func (a *app) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "copy the JSON files into the SQLite database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := sqlite.Open(a.cfg.SQLitePath)
			if err != nil {
				return err
			}
			defer db.Close()

			stats, err := migrate(cmd.Context(),
				jsonfile.NewUserStore(a.cfg.UsersPath()),
				jsonfile.NewQuizStore(a.cfg.QuizzesPath()),
				db,
			)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "users: %d copied, %d already present\n", stats.usersCopied, stats.usersSkipped)
			fmt.Fprintf(a.out, "quizzes: %d copied, %d already present\n", stats.quizzesCopied, stats.quizzesSkipped)
			return nil
		},
	}
}

func migrate(ctx context.Context, userSrc *jsonfile.UserStore, quizSrc *jsonfile.QuizStore, dst *sqlite.Store) (migrateStats, error) {
	var stats migrateStats

	all, err := userSrc.Load(ctx)
	if err != nil {
		return stats, errors.Wrap(err, "load users")
	}
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		err := dst.CreateUser(ctx, all[name])
		switch {
		case err == nil:
			stats.usersCopied++
		case errors.Is(err, users.ErrUsernameTaken):
			stats.usersSkipped++
		default:
			return stats, err
		}
	}

	quizzes, err := quizSrc.ListQuizzes(ctx)
	if err != nil {
		return stats, errors.Wrap(err, "load quizzes")
	}
	for _, q := range quizzes {
		err := dst.CreateQuiz(ctx, q)
		switch {
		case err == nil:
			stats.quizzesCopied++
		case errors.Is(err, quiz.ErrCodeTaken):
			stats.quizzesSkipped++
		default:
			return stats, err
		}
	}

	glog.Infof("migrated %d users and %d quizzes", stats.usersCopied, stats.quizzesCopied)
	return stats, nil
}
