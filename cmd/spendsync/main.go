package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/vango-dev/spendsync/internal/app"
	"github.com/vango-dev/spendsync/internal/config"
	"github.com/vango-dev/spendsync/internal/errors"
	"github.com/vango-dev/spendsync/pkg/api"
	"github.com/vango-dev/spendsync/pkg/state"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are shared by every command that talks to the API.
type globalFlags struct {
	configPath string
	baseURL    string
	transport  string
	locale     string
	wait       time.Duration
	noColor    bool
}

func main() {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "spendsync",
		Short: "Optimistic client for the expense API",
		Long: `spendsync issues expense API commands with optimistic local state.

Each write applies its optimistic update at once, sends the command,
and then applies the success or failure update when the API answers.
Commands print the affected state once the write has settled.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Config file (default: spendsync.yaml in this or a parent directory)")
	pf.StringVar(&flags.baseURL, "base-url", "", "API base URL (overrides config)")
	pf.StringVar(&flags.transport, "transport", "", "Transport: http or ws (overrides config)")
	pf.StringVar(&flags.locale, "locale", "", "UI locale (overrides config)")
	pf.DurationVar(&flags.wait, "wait", time.Minute, "How long to wait for a write to settle")
	pf.BoolVar(&flags.noColor, "no-color", false, "Disable colored error output")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if flags.noColor {
			errors.DisableColors()
		}
	}

	rootCmd.AddCommand(
		mockAPICmd(),
		intacctCmd(flags),
		bankCmd(flags),
		markupCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		var coded *errors.Error
		if stderrors.As(err, &coded) {
			fmt.Fprint(os.Stderr, coded.Format())
		} else {
			fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		}
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies flag overrides.
func (f *globalFlags) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.configPath != "" {
		cfg, err = config.LoadFile(f.configPath)
	} else {
		cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return nil, err
	}

	if f.baseURL != "" {
		cfg.API.BaseURL = f.baseURL
	}
	if f.transport != "" {
		cfg.API.Transport = f.transport
	}
	if f.locale != "" {
		cfg.Locale = f.locale
	}
	return cfg, nil
}

// withApp builds the app, runs fn, and closes the app.
func (f *globalFlags) withApp(ctx context.Context, fn func(a *app.App) error) error {
	cfg, err := f.loadConfig()
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())
	return fn(a)
}

// settle waits for p and prints key. A nil p means the write was rejected
// before it was sent.
func (f *globalFlags) settle(ctx context.Context, a *app.App, p *api.Pending, key state.Key) error {
	if p == nil {
		return fmt.Errorf("write was not issued, see log for details")
	}

	ctx, cancel := context.WithTimeout(ctx, f.wait)
	defer cancel()
	outcome, err := p.Wait(ctx)
	if err != nil {
		return err
	}

	switch outcome {
	case api.OutcomeSuccess:
		success("%s settled (%s)", p.Command(), p.RequestID())
	default:
		errorMsg("%s failed (%s)", p.Command(), p.RequestID())
	}
	return printKey(a.Store, key)
}

func printKey(store *state.Store, key state.Key) error {
	value, _ := store.Get(key)
	data, err := json.MarshalIndent(map[string]any{string(key): value}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m %s\n", fmt.Sprintf(format, args...))
}
