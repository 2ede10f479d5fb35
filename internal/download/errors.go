package download

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a request failure. Each kind carries a stable,
// user-facing message and an HTTP status; the raw collaborator error
// text is only ever logged server-side.
type ErrorKind int

const (
	// InvalidParameter indicates malformed or missing request parameters.
	InvalidParameter ErrorKind = iota

	// UnsupportedInput indicates the URL/target matched no known retrieval strategy.
	UnsupportedInput

	// AuthenticationRequired indicates a collaborator demanded a login or checkpoint.
	AuthenticationRequired

	// ProfileNotFound indicates the social target does not resolve to an account.
	ProfileNotFound

	// NoContent indicates retrieval completed but nothing was available for the target.
	NoContent

	// FormatMismatch indicates nothing retrieved satisfies the requested output format.
	FormatMismatch

	// ArtifactNotFound indicates the retrieval tool ran but no output file could be located.
	ArtifactNotFound

	// ConversionFailed indicates transcoding produced no usable output.
	ConversionFailed

	// CredentialFailure indicates a supplied secret was malformed or unwritable.
	CredentialFailure

	// RetrievalFailure is the catch-all for unclassified collaborator failures.
	RetrievalFailure
)

func (kind ErrorKind) Status() int {
	switch kind {
	case InvalidParameter, UnsupportedInput:
		return http.StatusBadRequest
	case AuthenticationRequired:
		return http.StatusForbidden
	case ProfileNotFound, NoContent, FormatMismatch:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message is the opaque text rendered to the caller for this kind.
func (kind ErrorKind) Message() string {
	switch kind {
	case InvalidParameter:
		return "Invalid request parameters"
	case UnsupportedInput:
		return "URL or parameter combination is not supported"
	case AuthenticationRequired:
		return "The requested content requires authentication"
	case ProfileNotFound:
		return "Profile could not be found"
	case NoContent:
		return "No content was available for the requested target"
	case FormatMismatch:
		return "No retrieved media matches the requested format"
	case ArtifactNotFound:
		return "Download completed but no output file was produced"
	case ConversionFailed:
		return "Audio conversion failed for all retrieved media"
	case CredentialFailure:
		return "Server credential configuration is invalid"
	default:
		return "Media retrieval failed"
	}
}

func (kind ErrorKind) String() string {
	return []string{
		"InvalidParameter", "UnsupportedInput", "AuthenticationRequired",
		"ProfileNotFound", "NoContent", "FormatMismatch", "ArtifactNotFound",
		"ConversionFailed", "CredentialFailure", "RetrievalFailure",
	}[kind]
}

// Error is the failure type that crosses the boundary between the
// download pipeline and the HTTP gateway.
type Error struct {
	Kind  ErrorKind
	cause error
}

func NewError(kind ErrorKind, cause error) *Error {
	return &Error{Kind: kind, cause: cause}
}

func NewErrorf(kind ErrorKind, format string, interpolations ...interface{}) *Error {
	return &Error{Kind: kind, cause: fmt.Errorf(format, interpolations...)}
}

func (err *Error) Error() string {
	if err.cause != nil {
		return fmt.Sprintf("%s: %s", err.Kind, err.cause)
	}

	return err.Kind.String()
}

func (err *Error) Unwrap() error { return err.cause }

// KindOf extracts the ErrorKind from err, defaulting to
// RetrievalFailure for errors raised outside the taxonomy.
func KindOf(err error) ErrorKind {
	var downloadErr *Error
	if errors.As(err, &downloadErr) {
		return downloadErr.Kind
	}

	return RetrievalFailure
}
