package cmd

import (
	"crypto/tls"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/toppk/httpx/packages/client"
	"github.com/toppk/httpx/packages/config"
	"github.com/toppk/httpx/packages/httpcore"
)

// clientFlags collects the client-shaping flags shared by commands.
type clientFlags struct {
	configPath   string
	profile      string
	auth         string
	noFollow     bool
	maxRedirects int
	insecure     bool
	verbose      bool
	headers      []string
	cookies      []string
}

// buildClient merges the config profile with command-line flags; flags
// win on conflict.
func buildClient(flags clientFlags) (*client.Client, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	profile, err := cfg.Resolve(flags.profile)
	if err != nil {
		return nil, err
	}

	opts := []client.Option{
		client.WithFollowRedirects(profile.GetFollowRedirects() && !flags.noFollow),
	}

	if flags.verbose {
		opts = append(opts, client.WithLogger(hclog.New(&hclog.LoggerOptions{
			Name:   "httpx",
			Level:  hclog.Debug,
			Output: os.Stderr,
		})))
	}

	switch {
	case flags.maxRedirects > 0:
		opts = append(opts, client.WithMaxRedirects(flags.maxRedirects))
	case profile.MaxRedirects > 0:
		opts = append(opts, client.WithMaxRedirects(profile.MaxRedirects))
	}

	if flags.insecure || profile.GetInsecure() {
		opts = append(opts, client.WithTLSConfig(&tls.Config{InsecureSkipVerify: true}))
	}

	switch {
	case flags.auth != "":
		user, pass, ok := strings.Cut(flags.auth, ":")
		if !ok {
			return nil, fmt.Errorf("auth must be \"user:pass\"")
		}
		opts = append(opts, client.WithBasicAuth(user, pass))
	case profile.Auth != nil:
		opts = append(opts, client.WithBasicAuth(profile.Auth.Username, profile.Auth.Password))
	}

	for key, value := range profile.Headers {
		opts = append(opts, client.WithDefaultHeader(key, value))
	}
	for _, raw := range flags.headers {
		key, value, ok := strings.Cut(raw, ":")
		if !ok {
			return nil, fmt.Errorf("header must be \"Key: Value\", got %q", raw)
		}
		opts = append(opts, client.WithDefaultHeader(strings.TrimSpace(key), strings.TrimSpace(value)))
	}

	cookies := httpcore.Cookies{}
	for name, value := range profile.Cookies {
		cookies[name] = value
	}
	for _, raw := range flags.cookies {
		name, value, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, fmt.Errorf("cookie must be \"name=value\", got %q", raw)
		}
		cookies[name] = value
	}
	if len(cookies) > 0 {
		opts = append(opts, client.WithCookies(cookies))
	}

	return client.New(opts...), nil
}
