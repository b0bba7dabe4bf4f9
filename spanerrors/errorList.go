package spanerrors

// Base Error. Used when a generic error escapes an action.
var APIError = NewSpanErrorType(
	"APIError",
	1000,
	500,
)

// The request carried no usable format preferences: an empty or unparsable accept set.
var MalformedRequestError = NewSpanErrorType(
	"MalformedRequestError",
	1001,
	400,
)

// The accept set was well formed but the action registered no handler for any of it.
var UnsupportedFormatError = NewSpanErrorType(
	"UnsupportedFormatError",
	1002,
	406,
)

// The selected format handler returned an error or panicked.
var HandlerError = NewSpanErrorType(
	"HandlerError",
	1003,
	500,
)

// The selected handler's output could not be encoded as the negotiated format.
var ResponseEncodingError = NewSpanErrorType(
	"ResponseEncodingError",
	1004,
	500,
)

// Sent back when the server framework raises an error that is not handled.
// This type SHOULD NOT be invoked by app logic.
var ServerError = NewSpanErrorType(
	"ServerError",
	1005,
	-1,
)

// List of default SpanError definitions.
var ErrorList = []*SpanErrorType{
	APIError,
	MalformedRequestError,
	UnsupportedFormatError,
	HandlerError,
	ResponseEncodingError,
	ServerError,
}

// Used to make ErrorTypeCodeIndex.
func makeDefaultErrorCodeIndex() map[int]*SpanErrorType {
	index := make(map[int]*SpanErrorType)
	for _, errorType := range ErrorList {
		index[errorType.apiCode] = errorType
	}
	return index
}

// ApiCode:*SpanErrorType indexing of default errors.
var ErrorTypeCodeIndex = makeDefaultErrorCodeIndex()
