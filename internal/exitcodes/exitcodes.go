// Package exitcodes defines the process exit codes of the hax CLI.
package exitcodes

const (
	OK           = 0
	GeneralError = 1
	UsageError   = 2
	ConfigError  = 3
	// NotFound covers unknown components and components that are not installed.
	NotFound     = 4
	NetworkError = 5
)
