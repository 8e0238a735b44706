package logging

import "fmt"

const (
	ansiReset   = "\033[0m"
	ansiRed     = "\033[31;1m"
	ansiYellow  = "\033[33;1m"
	ansiCyan    = "\033[36;1m"
	ansiMagenta = "\033[35m"
	ansiDim     = "\033[90m"
)

// ColorStatus renders an HTTP status code with ANSI coloring by status
// class: 2xx cyan, 3xx yellow, 4xx and above red.
func ColorStatus(status int, useColor bool) string {
	code := fmt.Sprintf("%d", status)
	if !useColor {
		return code
	}
	switch {
	case status >= 400:
		return ansiRed + code + ansiReset
	case status >= 300:
		return ansiYellow + code + ansiReset
	default:
		return ansiCyan + code + ansiReset
	}
}

// AccessLine formats a compact per-request log line: timestamp, status,
// method and path, with the path highlighted when color is enabled.
func AccessLine(timestamp string, status int, method, path string, useColor bool) string {
	ts := timestamp
	p := path
	if useColor {
		ts = ansiDim + timestamp + ansiReset
		p = ansiMagenta + path + ansiReset
	}
	return fmt.Sprintf("%s | %s · %s %q", ts, ColorStatus(status, useColor), method, p)
}
