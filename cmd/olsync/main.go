package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/olsync/olsync/internal/auth"
	"github.com/olsync/olsync/internal/overleaf"
	"github.com/olsync/olsync/internal/sync"
)

const defaultServerURL = "https://www.overleaf.com"

var (
	red   = color.New(color.FgHiRed, color.Bold).SprintFunc()
	green = color.New(color.FgHiGreen).SprintFunc()
	cyan  = color.New(color.FgHiCyan).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:           "olsync",
	Short:         "Synchronize Overleaf projects with a local directory",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("server", "s", defaultServerURL, "Overleaf server URL")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")
}

func main() {
	level := &slog.LevelVar{}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)

	cobra.OnInitialize(func() {
		if viper.GetBool("verbose") {
			level.Set(slog.LevelDebug)
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) error {
	if dir, err := auth.DefaultDir(); err == nil {
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("json")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	viper.BindPFlag("server_url", cmd.Flags().Lookup("server"))
	viper.BindPFlag("verbose", cmd.Flags().Lookup("verbose"))
	viper.SetDefault("join_timeout", overleaf.DefaultJoinTimeout.String())
	viper.SetDefault("request_timeout", overleaf.DefaultRequestTimeout.String())
	viper.SetDefault("connect_retries", overleaf.DefaultConnectRetries)

	viper.SetEnvPrefix("OLSYNC")
	viper.AutomaticEnv()

	return nil
}

// loadSession reads the stored credential, translating a missing session
// into a friendly hint.
func loadSession() (*auth.Session, error) {
	dir, err := auth.DefaultDir()
	if err != nil {
		return nil, err
	}

	session, err := auth.NewStore(dir).Load()
	if err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) {
			return nil, errors.New("not logged in; run " + cyan("olsync login") + " first")
		}
		return nil, err
	}

	return session, nil
}

func clientOptions() overleaf.Options {
	return overleaf.Options{
		ServerURL:      viper.GetString("server_url"),
		JoinTimeout:    viper.GetDuration("join_timeout"),
		RequestTimeout: viper.GetDuration("request_timeout"),
		ConnectRetries: viper.GetInt("connect_retries"),
	}
}

// newSyncer wires the orchestrator with a per-project protocol client
// factory and the interactive confirmer.
func newSyncer(session *auth.Session) *sync.Syncer {
	opts := clientOptions()
	factory := func(projectID string) sync.RemoteClient {
		return overleaf.NewClient(session, projectID, opts)
	}
	return sync.NewSyncer(factory, stdinConfirmer{})
}

func printError(err error) {
	os.Stderr.WriteString(red("ERROR") + " " + err.Error() + "\n")
}
