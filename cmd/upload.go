package cmd

import (
	"cmlsync/internal/app"
	"cmlsync/internal/exchange"
	"cmlsync/pkg/utils"

	"github.com/spf13/cobra"
)

type UploadFlags struct {
	FilePath string
}

var uploadFlags UploadFlags

// uploadCmd represents the upload command
var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload an XML or ZIP file and import it",
	Long: `Upload a local file to the exchange endpoint and import it. This will:

1. Authorize and obtain a session id (mode=checkauth)
2. Ask the server for its chunk size (mode=init)
3. Send the file in chunks of that size (mode=file)
4. Import every XML file of the upload, polling until each one is done (mode=import)

A ZIP archive is imported entry by entry: import*.xml first, then catalog*,
goods*, and the rest, each group in name order.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return utils.ValidateSourcePath(uploadFlags.FilePath)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Info("starting upload", "file", uploadFlags.FilePath)
		return runExchange("Uploading", &app.ExchangeOptions{
			Mode:     exchange.ModeUpload,
			FilePath: uploadFlags.FilePath,
		})
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().StringVarP(&uploadFlags.FilePath, "file", "f", "", "Path to the XML or ZIP file to upload (required)")
	_ = uploadCmd.MarkFlagRequired("file")
}
