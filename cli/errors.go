package cli

// ErrorCode defines error types for CLI operations
type ErrorCode string

const (
	InvalidArguments ErrorCode = "InvalidArguments"
	InvalidSize      ErrorCode = "InvalidSize"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}
