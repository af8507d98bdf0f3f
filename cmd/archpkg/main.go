package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/common/logger"
	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/common/output"
)

var (
	verbose    bool
	quiet      bool
	noColor    bool
	fileLog    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "archpkg",
	Short: "Arch Linux package lookup",
	Long: `Look up Arch Linux packages by name across the official
repositories and the AUR, and render their metadata as text.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Configure logging based on flags
		if verbose {
			logger.SetVerbose(true)
		}
		if quiet {
			logger.SetQuiet(true)
		}
		if noColor {
			output.NoColor()
		}
		if fileLog {
			if err := logger.Default().AttachFile(); err != nil {
				logger.Warn("file log disabled: %v", err)
			}
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Default().Close()
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&fileLog, "log", false, "Record all messages to the log file under the state directory")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
