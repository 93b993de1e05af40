// Package version records the SDK version, reported to the server in the
// User-Agent header.
package version

const Version = "1.0.0"
