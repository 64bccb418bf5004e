package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/toppk/httpx/packages/client"
	"github.com/toppk/httpx/packages/httpcore"
)

var requestCmd = &cobra.Command{
	Use:   "request <method> <url>",
	Short: "Send a single HTTP request",
	Long: `Send one request and print the response.

Examples:
  # Simple GET
  httpx request GET https://example.org/

  # POST with headers and body
  httpx request POST https://api.example.org/items \
      -H "Content-Type: application/json" -d '{"name":"widget"}'

  # Show the redirect chain instead of following it
  httpx request GET https://example.org/old --no-follow

  # Pull one field out of a JSON response
  httpx request GET https://api.example.org/items/1 --extract name

  # Using a config profile
  httpx request GET https://api.example.org/ --profile staging`,
	Args: cobra.ExactArgs(2),
	RunE: requestCommand,
}

var (
	requestHeaderFlags   []string
	requestDataFlag      string
	requestAuthFlag      string
	requestCookieFlags   []string
	requestNoFollowFlag  bool
	requestMaxRedirects  int
	requestExtractFlag   string
	requestConfigFlag    string
	requestProfileFlag   string
	requestInsecureFlag  bool
	requestVerboseFlag   bool
	requestNoColorFlag   bool
	requestShowHeaders   bool
)

func init() {
	requestCmd.Flags().StringArrayVarP(&requestHeaderFlags, "header", "H", nil, "Request header (\"Key: Value\", repeatable)")
	requestCmd.Flags().StringVarP(&requestDataFlag, "data", "d", "", "Request body")
	requestCmd.Flags().StringVarP(&requestAuthFlag, "auth", "a", "", "Basic auth credentials (\"user:pass\")")
	requestCmd.Flags().StringArrayVarP(&requestCookieFlags, "cookie", "b", nil, "Request cookie (\"name=value\", repeatable)")
	requestCmd.Flags().BoolVar(&requestNoFollowFlag, "no-follow", false, "Do not follow redirects")
	requestCmd.Flags().IntVar(&requestMaxRedirects, "max-redirects", 0, "Redirect hop limit (0 uses the default)")
	requestCmd.Flags().StringVar(&requestExtractFlag, "extract", "", "Print only this JSON path from the response body")
	requestCmd.Flags().StringVarP(&requestConfigFlag, "config", "c", "", "Config file path")
	requestCmd.Flags().StringVarP(&requestProfileFlag, "profile", "p", "", "Config profile name")
	requestCmd.Flags().BoolVarP(&requestInsecureFlag, "insecure", "k", false, "Disable SSL certificate validation")
	requestCmd.Flags().BoolVarP(&requestVerboseFlag, "verbose", "v", false, "Log connection and redirect activity")
	requestCmd.Flags().BoolVar(&requestNoColorFlag, "no-color", false, "Disable colored output")
	requestCmd.Flags().BoolVarP(&requestShowHeaders, "include", "i", false, "Include response headers in output")
}

func requestCommand(cmd *cobra.Command, args []string) error {
	method := strings.ToUpper(args[0])
	url := args[1]

	c, err := buildClient(clientFlags{
		configPath:   requestConfigFlag,
		profile:      requestProfileFlag,
		auth:         requestAuthFlag,
		noFollow:     requestNoFollowFlag,
		maxRedirects: requestMaxRedirects,
		insecure:     requestInsecureFlag,
		verbose:      requestVerboseFlag,
		headers:      requestHeaderFlags,
		cookies:      requestCookieFlags,
	})
	if err != nil {
		return err
	}
	defer c.Close()

	var opts []client.RequestOption
	if requestDataFlag != "" {
		opts = append(opts, client.WithBody([]byte(requestDataFlag)))
	}
	resp, err := c.Do(context.Background(), method, url, opts...)
	if err != nil {
		return err
	}

	color.NoColor = requestNoColorFlag
	printResponse(cmd.OutOrStdout(), resp)
	return nil
}

func printResponse(w io.Writer, resp *httpcore.Response) {
	statusColor := color.New(color.FgGreen, color.Bold)
	if !resp.IsSuccess() {
		statusColor = color.New(color.FgRed, color.Bold)
	}

	for _, hop := range resp.History {
		dim := color.New(color.Faint)
		dim.Fprintf(w, "-> %d %s\n", hop.StatusCode, hop.Headers.Get("Location"))
	}
	statusColor.Fprintf(w, "%d\n", resp.StatusCode)

	if requestShowHeaders {
		dim := color.New(color.FgCyan)
		for _, f := range resp.Headers.Fields() {
			dim.Fprintf(w, "%s: %s\n", f.Key, f.Value)
		}
		fmt.Fprintln(w)
	}

	if requestExtractFlag != "" {
		result := gjson.GetBytes(resp.Body, requestExtractFlag)
		if !result.Exists() {
			fmt.Fprintf(os.Stderr, "warning: path %q not found in response\n", requestExtractFlag)
			return
		}
		fmt.Fprintln(w, result.String())
		return
	}
	if len(resp.Body) > 0 {
		fmt.Fprintln(w, string(resp.Body))
	}
}
