// Package cli implements the unlockr command line surface: batch password
// removal straight to an output directory, with no server or session store
// involved.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unlockr/unlockr/internal/app"
	"github.com/unlockr/unlockr/internal/codec/pdfcpu"
)

var (
	password  string
	inputDir  string
	outputDir string
)

var rootCmd = &cobra.Command{
	Use:   "unlockr-cli [files...]",
	Short: "Batch remove passwords from PDF files",
	Long: `Batch remove passwords from PDF files.

Examples:
  unlockr-cli --password "secret" file.pdf
  unlockr-cli --password "secret" file1.pdf file2.pdf
  unlockr-cli --password "secret" --input-dir ./pdfs
  unlockr-cli --password "secret" --output-dir ./unlocked file.pdf`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := &app.Service{Codec: pdfcpu.New()}
		return runUnlock(cmd, svc, args)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().StringVarP(&password, "password", "p", "", "password to unlock the PDFs")
	rootCmd.Flags().StringVarP(&inputDir, "input-dir", "i", "", "process all PDFs in this directory")
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "./unlocked", "output directory for unlocked PDFs")
	if err := rootCmd.MarkFlagRequired("password"); err != nil {
		panic(fmt.Sprintf("mark password required: %v", err))
	}
}
