// Package constants centralizes defaults shared across the CLI.
//
// File permissions, the probe timeouts, and the on-disk layout of a run
// directory live here so cmd/ and internal/ agree on them without import cycles.
package constants
