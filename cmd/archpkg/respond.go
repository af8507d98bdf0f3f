package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/bot"
	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/common/config"
	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/common/logger"
)

var respondCmd = &cobra.Command{
	Use:   "respond <message...>",
	Short: "Answer a chat message and print the reply",
	Long: `Feed a raw chat message through the package lookup handler and
print the reply verbatim. This is the chat-bot integration seam: the
host forwards the user's message here and relays the output.

The reply is plain text with no color, and the exit code is always 0 -
a "not found" reply is a successful response.

Examples:
  archpkg respond pkg linux
  archpkg respond pkg linux core
  archpkg respond linux`,
	Args: cobra.MinimumNArgs(1),
	Run:  runRespond,
}

func init() {
	rootCmd.AddCommand(respondCmd)
}

func runRespond(cmd *cobra.Command, args []string) {
	message := strings.Join(args, " ")

	cfg, err := loadConfig()
	if err != nil {
		// The reply is the product: degrade to defaults, never fail
		logger.Warn("loading config: %v, using defaults", err)
		cfg = config.DefaultConfig()
	}

	resolver := buildResolver(cfg, resolverOptions{})
	handler := bot.NewHandler(resolver)

	fmt.Println(handler.Respond(cmd.Context(), message))
}
