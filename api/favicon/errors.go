package favicon

// ErrorCode enumerates every failure kind the favicon pipeline can report.
// The set is closed: all errors returned by api, api/fetch and api/magick
// carry exactly one of these codes.
type ErrorCode string

const (
	// ErrUnexpectedStatus is a non-2xx HTTP response for the page or icon fetch.
	// Context: "status", "url".
	ErrUnexpectedStatus ErrorCode = "UnexpectedStatus"
	// ErrUnsupportedScheme is a resolved icon URL whose scheme is not http, https or data.
	// Context: "scheme".
	ErrUnsupportedScheme ErrorCode = "UnsupportedScheme"
	// ErrUnsupportedDataURLEncoding is a data: URL whose body is not <mime>;base64,<payload>.
	ErrUnsupportedDataURLEncoding ErrorCode = "UnsupportedDataURLEncoding"
	// ErrBadImageData is a base64 payload that failed to decode.
	ErrBadImageData ErrorCode = "BadImageData"
	// ErrNoLink means no favicon URL could be produced for the page.
	ErrNoLink ErrorCode = "NoLink"
	// ErrNoPath means a filename could not be derived from a URL path.
	// Context: "url".
	ErrNoPath ErrorCode = "NoPath"
	// ErrBadImageFormat means the identification tool did not print valid text.
	ErrBadImageFormat ErrorCode = "BadImageFormat"
	// ErrBadImage means no usable layer was found in the fetched resource.
	ErrBadImage ErrorCode = "BadImage"
	// ErrIO is a filesystem or subprocess failure. Context: "context".
	ErrIO ErrorCode = "IO"
	// ErrURLParse is a malformed URL. Context: "url", "stage".
	ErrURLParse ErrorCode = "URLParse"
	// ErrRequest is a transport-level HTTP failure (DNS, connection, TLS).
	ErrRequest ErrorCode = "Request"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}
