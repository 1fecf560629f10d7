package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"classquiz/internal/backend"
	"classquiz/internal/config"
	"classquiz/internal/httpapi"
	"classquiz/internal/opentdb"
	"classquiz/internal/quiz"
	"classquiz/internal/session"
	"classquiz/internal/users"
)

var (
	envFile       string
	addr          string
	dataDir       string
	storeDriver   string
	sqlitePath    string
	secureCookies bool
)

func init() {
	rootCmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (ADDR)")
	rootCmd.Flags().StringVar(&dataDir, "data-dir", "", "directory holding users.json and quizzes.json (DATA_DIR)")
	rootCmd.Flags().StringVar(&storeDriver, "store", "", "store driver: json or sqlite (STORE_DRIVER)")
	rootCmd.Flags().StringVar(&sqlitePath, "sqlite-path", "", "SQLite database file (SQLITE_PATH)")
	rootCmd.Flags().BoolVar(&secureCookies, "secure-cookies", false, "mark session cookies Secure when served over TLS")
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
}

var rootCmd = &cobra.Command{
	Use:          "quiz-service",
	Short:        "serve the classquiz web application",
	SilenceUsage: true,
	RunE:         serve,
}

func serve(cmd *cobra.Command, _ []string) error {
	// glog reads its settings from the Go flag set, which cobra has parsed
	// through pflag; mark it parsed so glog stops complaining.
	_ = flag.CommandLine.Parse(nil)
	defer glog.Flush()

	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Addr = addr
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = dataDir
	}
	if cmd.Flags().Changed("store") {
		cfg.StoreDriver = storeDriver
	}
	if cmd.Flags().Changed("sqlite-path") {
		cfg.SQLitePath = sqlitePath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	stores, err := backend.Open(cfg)
	if err != nil {
		return err
	}
	defer stores.Close()

	provider := opentdb.NewClientWithURL(cfg.OpenTDBURL, &http.Client{Timeout: cfg.OpenTDBTimeout})
	sessions := session.NewManager(cfg.SessionSecret, cfg.SessionTTL)
	sessions.SetSecure(secureCookies)

	api, err := httpapi.NewAPI(
		users.NewService(stores.Users),
		quiz.NewService(stores.Quizzes, provider.FetchQuestions),
		sessions,
	)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewRouter(api),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		glog.Infof("quiz-service listening on %s", cfg.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server failed")
		}
		return nil
	case <-ctx.Done():
	}

	glog.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		glog.Errorf("%v", err)
		glog.Flush()
		os.Exit(1)
	}
}
