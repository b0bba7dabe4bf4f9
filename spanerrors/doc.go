/*
Spanreed error model definition and the default errors raised while negotiating a
response format.

The Spanreed family strives to have a consistent set of errors (and error communication)
conventions shared between all services and clients.

This package defines two main objects for handling errors:

• SpanErrorType defines an error type.

• SpanError is an instance of an error which contains a SpanErrorType.

Negotiation Errors

MalformedRequestError is returned when a request carries no usable Accept preferences.
UnsupportedFormatError is returned when the preferences are well formed but no handler
of the action produces any of them; it maps to 406 Not Acceptable. HandlerError wraps
a failure of the handler that was picked, and ResponseEncodingError a failure turning
its output into bytes.
*/
package spanerrors
