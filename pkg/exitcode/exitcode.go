// Package exitcode provides standardized exit codes for janitor
package exitcode

// Exit codes for the janitor CLI
const (
	Success       = 0
	GeneralError  = 1
	ConfigError   = 2
	ArgumentError = 3
	StorageError  = 4
	Interrupted   = 130
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case ConfigError:
		return "Configuration error"
	case ArgumentError:
		return "Invalid argument"
	case StorageError:
		return "Content repository error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
