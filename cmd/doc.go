// Package cmd implements the command-line interface of Memorized. It
// provides a hierarchical command structure with operations for running the
// server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Starts and configures the Memorized server and its admin HTTP endpoint
//   - counter: Commands for counter operations (get, set, incr, create, etc.)
//   - hashmap: Commands for string map operations (get, put, remove, etc.)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set through a MEMORIZED_<FLAG> environment variable
// or a .env file. See memorized -help for a list of all commands.
package cmd
