// Package log provides slog logger construction with credential
// redaction. Per-site request headers may carry cookies or tokens,
// and this package keeps them out of debug output.
package log
