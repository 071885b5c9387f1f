// Package utils contains internal HTTP and parsing helpers shared by the
// provider adapters: a streaming POST helper, an SSE-style frame scanner,
// and lenient per-frame JSON decoding.
package utils
