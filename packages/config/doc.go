// Package config loads client profiles from YAML files, so the CLI and
// embedding programs share one way of describing default headers,
// cookies, auth and redirect behavior.
package config
