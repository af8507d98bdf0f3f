package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/bot"
	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/common/logger"
	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/common/output"
	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/lookup"
)

var (
	infoNoCache      bool
	infoTimeout      int
	infoAUROnly      bool
	infoOfficialOnly bool
)

var infoCmd = &cobra.Command{
	Use:   "info <name> [repo]",
	Short: "Show package details from the official repositories or the AUR",
	Long: `Look up a package by exact name. The official repositories are
searched first; when they have no match, the AUR is consulted and the
best-voted match is shown.

The optional repo argument filters the official search to a single
repository. Retired names (community, testing) map to their current
counterparts.

Examples:
  archpkg info linux
  archpkg info linux core
  archpkg info yay              # falls through to the AUR
  archpkg info paru --aur-only`,
	Args: cobra.RangeArgs(1, 2),
	Run:  runInfo,
}

func init() {
	infoCmd.Flags().BoolVar(&infoNoCache, "no-cache", false, "Bypass the lookup cache")
	infoCmd.Flags().IntVar(&infoTimeout, "timeout", 0, "HTTP request timeout in seconds")
	infoCmd.Flags().BoolVar(&infoAUROnly, "aur-only", false, "Search only the AUR")
	infoCmd.Flags().BoolVar(&infoOfficialOnly, "official-only", false, "Search only the official repositories")
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) {
	if infoAUROnly && infoOfficialOnly {
		logger.Error("--aur-only and --official-only are mutually exclusive")
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("loading config: %v", err)
		os.Exit(1)
	}

	resolver := buildResolver(cfg, resolverOptions{
		noCache:      infoNoCache,
		timeoutSec:   infoTimeout,
		officialOnly: infoOfficialOnly,
		aurOnly:      infoAUROnly,
	})

	name := args[0]
	repo := ""
	if len(args) > 1 {
		repo = normalizeRepoArg(args[1])
	}

	result, err := resolver.Lookup(cmd.Context(), name, repo)
	if err != nil {
		if errors.Is(err, lookup.ErrNotFound) {
			output.PrintWarning("%s", bot.FormatNotFound(name))
			os.Exit(1)
		}
		logger.Error("%v", err)
		os.Exit(1)
	}

	if result.FromCache {
		logger.Debug("result served from cache")
	}

	printReply(bot.FormatResult(result))
}

// printReply prints a reply template, coloring the field labels when
// stdout is a terminal.
func printReply(reply string) {
	if !output.IsTerminal() {
		fmt.Println(reply)
		return
	}

	for _, line := range strings.Split(reply, "\n") {
		label, value, found := strings.Cut(line, ": ")
		if !found {
			fmt.Println(line)
			continue
		}
		fmt.Printf("%s: %s\n", output.Sprint(output.Header, label), value)
	}
}
