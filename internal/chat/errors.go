package chat

import "errors"

// FallbackReply reemplaza el placeholder del asistente cuando un request falla.
const FallbackReply = "Sorry, I encountered an error. Please try again."

const defaultFailureMessage = "Failed to send message"

var (
	// ErrAborted indica que el usuario cancelo el request. Nunca se muestra.
	ErrAborted        = errors.New("request aborted by user")
	ErrEmptyInput     = errors.New("message is empty")
	ErrNothingToRetry = errors.New("no user message to retry")
)

// ErrorKind clasifica los fallos visibles de un request.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTransport
	KindServerRejected
	KindMalformedStream
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport_failure"
	case KindServerRejected:
		return "server_rejected"
	case KindMalformedStream:
		return "malformed_stream"
	}
	return "unknown"
}

// RequestError es un fallo de request que termina en el banner de error.
type RequestError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Details string
	Err     error
}

func (e *RequestError) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return defaultFailureMessage
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsKind reporta si err es un *RequestError del tipo dado.
func IsKind(err error, kind ErrorKind) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.Kind == kind
}

// userMessage convierte un fallo en el texto del banner.
func userMessage(err error) string {
	if err == nil {
		return ""
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Error()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return defaultFailureMessage
}
