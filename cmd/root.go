package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"cmlsync/internal/app"
	"cmlsync/internal/config"
	"cmlsync/internal/logging"
	"cmlsync/internal/ui"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfg       *config.Config
	cfgFile   string
	logger    *slog.Logger
	logCloser io.Closer
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cmlsync",
	Short: "cmlsync - CommerceML exchange client for online shops",
	Long: `cmlsync drives the CommerceML exchange protocol against a shop's
exchange endpoint (for example /bitrix/admin/1c_exchange.php).

It authorizes, optionally uploads an XML or ZIP file in the chunk size the
server asks for, and then runs the import of every file until the server
reports success.

Usage:
  Upload and import a file:     cmlsync upload --file ./export.zip
  Import a file already there:  cmlsync exchange --filename import.xml

Press Ctrl+C to stop a running exchange.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		initConfig()

		var err error
		cfg, err = config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		logger, logCloser, err = logging.New(cfg.Logging)
		if err != nil {
			return err
		}
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", "path", used)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.cmlsync.yaml)")
	flags.String("url", "", "exchange endpoint URL, e.g. https://shop.example/bitrix/admin/1c_exchange.php")
	flags.String("login", "", "exchange user login")
	flags.String("password", "", "exchange user password")
	flags.String("type", config.DefaultExchangeType, "exchange type (catalog, sale, ...)")
	flags.Duration("poll-interval", config.DefaultPollInterval, "wait between two import requests")
	flags.Int("max-polls", 0, "give up on a file after this many progress replies (0 = never)")
	flags.String("log-level", "INFO", "log level (DEBUG, INFO, WARN, ERROR)")
	flags.String("log-format", "text", "log format (text or json)")
	flags.String("log-file", "", "also append logs to this file")
	flags.StringP("output", "o", "text", "run report format (text or yaml)")

	bindings := map[string]string{
		"exchange.url":           "url",
		"exchange.login":         "login",
		"exchange.password":      "password",
		"exchange.type":          "type",
		"exchange.poll_interval": "poll-interval",
		"exchange.max_polls":     "max-polls",
		"logging.level":          "log-level",
		"logging.format":         "log-format",
		"logging.file":           "log-file",
		"output":                 "output",
	}
	for key, flag := range bindings {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}

	// Set up viper environment variable support: CMLSYNC_EXCHANGE_URL, ...
	viper.SetEnvPrefix("CMLSYNC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not find home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".cmlsync" (without extension)
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".cmlsync")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Warning: could not read config file: %v\n", err)
		}
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// createContext creates a context that cancels on interrupt signals
func createContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, stopping exchange...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

// runExchange wires the application for one invocation and runs it
func runExchange(description string, opts *app.ExchangeOptions) error {
	ctx, cancel := createContext()
	defer cancel()

	consoleUI := ui.NewConsoleUI(description, logger)
	exchangeApp := app.NewExchangeApp(cfg, logger, consoleUI)
	_, err := exchangeApp.Run(ctx, opts)
	return err
}
