// Package config handles configuration loading, parsing, and validation
// from environment variables and an optional config file. It provides
// type-safe access to the settings needed by the generation client, the
// result cache, the batch coordinator and the HTTP server while keeping
// configuration details separate from business logic.
package config
