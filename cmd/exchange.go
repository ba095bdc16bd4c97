package cmd

import (
	"errors"
	"strings"

	"cmlsync/internal/app"
	"cmlsync/internal/exchange"

	"github.com/spf13/cobra"
)

type ExchangeFlags struct {
	Filename string
}

var exchangeFlags ExchangeFlags

// exchangeCmd represents the standard exchange command
var exchangeCmd = &cobra.Command{
	Use:   "exchange",
	Short: "Import a file the server already has",
	Long: `Run a standard exchange: authorize, then import a file that is
already present on the server, polling until the server reports success.
No file is uploaded.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(exchangeFlags.Filename) == "" {
			return errors.New("remote filename is required")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Info("starting standard exchange", "filename", exchangeFlags.Filename)
		return runExchange("Exchanging", &app.ExchangeOptions{
			Mode:           exchange.ModeStandard,
			RemoteFilename: strings.TrimSpace(exchangeFlags.Filename),
		})
	},
}

func init() {
	rootCmd.AddCommand(exchangeCmd)

	exchangeCmd.Flags().StringVarP(&exchangeFlags.Filename, "filename", "n", "", "Name of the file on the server to import (required)")
	_ = exchangeCmd.MarkFlagRequired("filename")
}
