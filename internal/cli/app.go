// Package cli implements quiz-cli, the administration tool that works
// directly on the configured store.
package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"classquiz/internal/backend"
	"classquiz/internal/config"
	"classquiz/internal/quiz"
	"classquiz/internal/users"
)

type options struct {
	envFile    string
	dataDir    string
	driver     string
	sqlitePath string
}

// app is filled in by the root command's pre-run hook.
type app struct {
	in  io.Reader
	out io.Writer

	opts    options
	cfg     *config.Config
	backend *backend.Backend
	users   *users.Service
	quizzes *quiz.Service
}

// Run executes quiz-cli with args and releases the store afterwards, even
// when the command fails.
func Run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	a := &app{in: in, out: out}
	defer func() {
		if err := a.close(); err != nil {
			glog.Warningf("close store: %v", err)
		}
	}()

	root := a.rootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (a *app) rootCommand() *cobra.Command {

	root := &cobra.Command{
		Use:           "quiz-cli",
		Short:         "administer classquiz users and quizzes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd)
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.out)

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	flags.StringVar(&a.opts.dataDir, "data-dir", "", "directory holding users.json and quizzes.json (DATA_DIR)")
	flags.StringVar(&a.opts.driver, "store", "", "store driver: json or sqlite (STORE_DRIVER)")
	flags.StringVar(&a.opts.sqlitePath, "sqlite-path", "", "SQLite database file (SQLITE_PATH)")

	root.AddCommand(a.userCommand(), a.quizCommand(), a.migrateCommand())
	return root
}

func (a *app) open(cmd *cobra.Command) error {
	cfg, err := config.Load(a.opts.envFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = a.opts.dataDir
	}
	if cmd.Flags().Changed("store") {
		cfg.StoreDriver = a.opts.driver
	}
	if cmd.Flags().Changed("sqlite-path") {
		cfg.SQLitePath = a.opts.sqlitePath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	b, err := backend.Open(cfg)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.backend = b
	a.users = users.NewService(b.Users)
	a.quizzes = quiz.NewService(b.Quizzes, nil)
	return nil
}

func (a *app) close() error {
	if a.backend == nil {
		return nil
	}
	err := a.backend.Close()
	a.backend = nil
	return err
}

func (a *app) userCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "manage accounts"}

	var password, role string
	add := &cobra.Command{
		Use:   "add <username>",
		Short: "create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := users.ParseRegistrationRole(role)
			if err != nil {
				return err
			}
			if password == "" {
				return errors.New("--password is required")
			}
			if err := a.users.Register(cmd.Context(), args[0], password, parsed); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "created %s %s\n", parsed, args[0])
			return nil
		},
	}
	add.Flags().StringVar(&password, "password", "", "initial password")
	add.Flags().StringVar(&role, "role", "student", "student or teacher")

	cmd.AddCommand(add)
	return cmd
}

func (a *app) quizCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "quiz", Short: "inspect and play quizzes"}

	list := &cobra.Command{
		Use:   "list",
		Short: "list every quiz",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			quizzes, err := a.quizzes.ListQuizzes(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tTITLE\tQUESTIONS\tRESULTS\tCREATED BY")
			for _, q := range quizzes {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", q.Code, q.Title, len(q.Questions), len(q.Results), q.CreatedBy)
			}
			return tw.Flush()
		},
	}

	var top int
	leaderboard := &cobra.Command{
		Use:   "leaderboard <code>",
		Short: "print the ranked results of a quiz",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ranked, err := a.quizzes.Leaderboard(cmd.Context(), args[0], top)
			if err != nil {
				return err
			}
			for idx, result := range ranked {
				fmt.Fprintf(a.out, "%d. %s %d\n", idx+1, result.Student, result.Score)
			}
			return nil
		},
	}
	leaderboard.Flags().IntVar(&top, "top", 3, "number of entries to show, 0 for all")

	cmd.AddCommand(list, leaderboard, a.playCommand())
	return cmd
}
