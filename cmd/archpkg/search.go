package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/bot"
	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/common/logger"
	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/common/output"
	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/lookup"
)

var (
	searchRepo         string
	searchLimit        int
	searchAUROnly      bool
	searchOfficialOnly bool
	searchPick         bool
)

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search packages across the official repositories and the AUR",
	Long: `Run a keyword search against the official package search API and
an exact-name search against the AUR, and list the combined results.

A failing side degrades to the other: the listing is best-effort.

Examples:
  archpkg search vim
  archpkg search vim --repo extra
  archpkg search paru --aur-only
  archpkg search vim --pick        # select a result interactively`,
	Args: cobra.ExactArgs(1),
	Run:  runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchRepo, "repo", "", "Filter official results to one repository")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "Maximum number of results (0 = unlimited)")
	searchCmd.Flags().BoolVar(&searchAUROnly, "aur-only", false, "Search only the AUR")
	searchCmd.Flags().BoolVar(&searchOfficialOnly, "official-only", false, "Search only the official repositories")
	searchCmd.Flags().BoolVar(&searchPick, "pick", false, "Select a result interactively and show its details")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	if searchAUROnly && searchOfficialOnly {
		logger.Error("--aur-only and --official-only are mutually exclusive")
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("loading config: %v", err)
		os.Exit(1)
	}

	resolver := buildResolver(cfg, resolverOptions{})
	term := args[0]

	summaries, err := resolver.SearchAll(cmd.Context(), term, lookup.SearchOptions{
		Repo:         normalizeRepoArg(searchRepo),
		Limit:        searchLimit,
		OfficialOnly: searchOfficialOnly,
		AUROnly:      searchAUROnly,
	})
	if err != nil {
		if errors.Is(err, lookup.ErrNotFound) {
			output.PrintWarning("No packages matching '%s' found.", term)
			os.Exit(1)
		}
		logger.Error("%v", err)
		os.Exit(1)
	}

	if searchPick {
		pickAndShow(cmd, resolver, summaries)
		return
	}

	printListing(summaries)
}

// printListing renders the combined results as a table
func printListing(summaries []lookup.Summary) {
	w := tabwriter.NewWriter(os.Stdout, 5, 3, 2, ' ', 0)
	fmt.Fprintln(w, "REPO\tNAME\tVERSION\tVOTES\tDESCRIPTION")
	for _, s := range summaries {
		votes := "-"
		if s.Source == lookup.SourceAUR {
			votes = strconv.Itoa(s.Votes)
		}
		name := s.Name
		if s.OutOfDate {
			name += " " + output.Sprint(output.Flagged, "(out-of-date)")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			output.FormatSource(string(s.Source))+" "+s.Repo, name, s.Version, votes, s.Description)
	}
	w.Flush()
}

// pickAndShow prompts for one result and prints its full details
func pickAndShow(cmd *cobra.Command, resolver *lookup.Resolver, summaries []lookup.Summary) {
	items := make([]string, len(summaries))
	for i, s := range summaries {
		items[i] = fmt.Sprintf("%s/%s %s", s.Repo, s.Name, s.Version)
	}

	prompt := promptui.Select{
		Label: "Select package",
		Items: items,
		Size:  10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		logger.Error("selection aborted: %v", err)
		os.Exit(1)
	}

	picked := summaries[index]
	result, err := resolver.Lookup(cmd.Context(), picked.Name, "")
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	fmt.Println()
	printReply(bot.FormatResult(result))
}
