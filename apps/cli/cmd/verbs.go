package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

// Verb shortcuts: "httpx get URL" is "httpx request GET URL" with the
// same flags.
func init() {
	for _, verb := range []string{"get", "head", "post", "put", "patch", "delete"} {
		method := strings.ToUpper(verb)
		cmd := &cobra.Command{
			Use:   verb + " <url>",
			Short: "Send a " + method + " request",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return requestCommand(cmd, []string{method, args[0]})
			},
		}
		cmd.Flags().AddFlagSet(requestCmd.Flags())
		rootCmd.AddCommand(cmd)
	}
}
