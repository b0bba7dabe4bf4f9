package spanerrors

import (
	"fmt"
	uuid "github.com/satori/go.uuid"
	"golang.org/x/xerrors"
	"runtime/debug"
	"strconv"
)

/*
SpanErrorType defines a TYPE of error that CAN be returned by an ecosystem. Each
SpanErrorType for a given ecosystem should have a unique Name and ApiCode.

Since types are declared as pointers, the underlying fields are private to protect
them against accidental mutation by other packages. Define new error types with
NewSpanErrorType().
*/
type SpanErrorType struct {
	// Unique human-readable name of the error type for the API ecosystem.
	name string

	// Unique number to identify the error type in the API ecosystem.
	apiCode int

	// HTTP code that should be returned when this error type is returned. Set to -1
	// if the http code is determined dynamically.
	httpCode int
}

// Returns a span error type definition. Each definition should only need to be declared
// once in a shared library for any given ecosystem.
func NewSpanErrorType(name string, apiCode int, httpCode int) *SpanErrorType {
	return &SpanErrorType{
		name:     name,
		apiCode:  apiCode,
		httpCode: httpCode,
	}
}

// Returns a new span error of this type.
func (errorType *SpanErrorType) New(
	message string,
	errorData map[string]interface{},
	source error,
) *SpanError {
	return &SpanError{
		SpanErrorType: errorType,
		Message:       message,
		Id:            uuid.NewV4(),
		ErrorData:     errorData,
		sourceErr:     source,
		sourceStack:   debug.Stack(),
		frame:         xerrors.Caller(1),
	}
}

/*
Creates a new error that is immediately passed to a panic. A format handler can use it
to abort from deep inside its rendering code; the dispatcher recovers the panic and
returns the error with its type intact.
*/
func (errorType *SpanErrorType) Panic(
	message string,
	errorData map[string]interface{},
	source error,
) {
	panic(errorType.New(message, errorData, source))
}

// Unique human-readable name of the error type for the API ecosystem.
func (errorType *SpanErrorType) Name() string {
	return errorType.name
}

// Unique number to identify the error type in the API ecosystem.
func (errorType *SpanErrorType) ApiCode() int {
	return errorType.apiCode
}

// HTTP code that should be returned when this error type is returned.
func (errorType *SpanErrorType) HttpCode() int {
	return errorType.httpCode
}

// Returns a copy of the error type with the given http code replaced.
func (errorType *SpanErrorType) WithHttpCode(newHttpCode int) *SpanErrorType {
	return &SpanErrorType{
		name:     errorType.name,
		apiCode:  errorType.apiCode,
		httpCode: newHttpCode,
	}
}

// Allows the error type definition itself to be used as an error, for things like
// xerrors.Is comparisons.
func (errorType *SpanErrorType) Error() string {
	return errorType.name + " (" + strconv.Itoa(errorType.apiCode) + ")"
}

// SpanError is a specific error instance.
type SpanError struct {
	// The type of error we are returning.
	*SpanErrorType

	// A message detailing what caused the error.
	Message string

	// An id for the error being returned.
	Id uuid.UUID

	// A string / any mapping of data related to the error.
	ErrorData map[string]interface{}

	// The error that caused this one, if any.
	sourceErr error

	// The debug.Stack() from where this error was instantiated.
	sourceStack []byte

	// The xerrors.Frame from where this error was instantiated.
	frame xerrors.Frame
}

// Returns true if the underlying type of this error is errorType. Types copied with
// WithHttpCode still match their original.
func (spanError *SpanError) IsType(errorType *SpanErrorType) bool {
	return spanError.SpanErrorType.apiCode == errorType.apiCode &&
		spanError.SpanErrorType.name == errorType.name
}

// Is lets xerrors.Is match a SpanError against its SpanErrorType.
func (spanError *SpanError) Is(target error) bool {
	if errorType, ok := target.(*SpanErrorType); ok {
		return spanError.IsType(errorType)
	}
	return false
}

// Error string to conform to builtin error interface.
func (spanError *SpanError) Error() string {
	return spanError.SpanErrorType.Error() + " - " + spanError.Message
}

// Implements the xerrors.Wrapper interface.
func (spanError *SpanError) Unwrap() error {
	return spanError.sourceErr
}

// Implements xerrors.Formatter so "%+v" prints the creation frame and source error.
func (spanError *SpanError) FormatError(printer xerrors.Printer) error {
	printer.Print(spanError.Error())
	spanError.frame.Format(printer)
	return spanError.sourceErr
}

func (spanError *SpanError) Format(state fmt.State, verb rune) {
	xerrors.FormatError(spanError, state, verb)
}

// More verbose error message that includes a debug.Stack() and source error
// information. This is not part of Error(), Message, or ErrorData since it may contain
// sensitive information that should not be returned to the client.
func (spanError *SpanError) LogMessage() string {
	return fmt.Sprint(
		"\nMESSAGE: ",
		spanError.Error(),
		"\nORIGINAL: ",
		spanError.sourceErr,
		"\nSTACK:\n",
		string(spanError.sourceStack),
	)
}

// AsSpanError unwraps err until it finds a *SpanError.
func AsSpanError(err error) (*SpanError, bool) {
	var spanError *SpanError
	if xerrors.As(err, &spanError) {
		return spanError, true
	}
	return nil, false
}
