package dispatch

import (
	"github.com/illuscio-dev/spanrespond-go/mimetype"
	"github.com/illuscio-dev/spanrespond-go/spanerrors"
	"go.uber.org/zap"
	"golang.org/x/xerrors"
)

// Dispatcher selects and runs format handlers. The zero value is not usable; build one
// with New. A Dispatcher holds no per-call state and may be shared between goroutines.
type Dispatcher struct {
	logger         *zap.Logger
	matchWildcards bool
}

// Option configures a Dispatcher.
type Option func(dispatcher *Dispatcher)

// WithLogger sets the logger used for debug output about selections.
func WithLogger(logger *zap.Logger) Option {
	return func(dispatcher *Dispatcher) {
		if logger != nil {
			dispatcher.logger = logger
		}
	}
}

// WithWildcards lets requested media ranges such as "*/*" or "text/*" match the first
// registered mimetype they cover. Off by default, in which case a range only matches a
// handler registered under that exact range.
func WithWildcards(enabled bool) Option {
	return func(dispatcher *Dispatcher) {
		dispatcher.matchWildcards = enabled
	}
}

// New returns a Dispatcher configured by opts.
func New(opts ...Option) *Dispatcher {
	dispatcher := &Dispatcher{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(dispatcher)
	}
	return dispatcher
}

var defaultDispatcher = New()

// Dispatch runs the exact-match default Dispatcher.
func Dispatch(accept mimetype.AcceptSet, registry *Registry) (*Result, error) {
	return defaultDispatcher.Dispatch(accept, registry)
}

/*
Dispatch walks accept in priority order and invokes the handler of the first mimetype
present in registry, exactly once.

An empty accept fails with a MalformedRequestError before the registry is looked at.
When nothing matches, the returned Result has OutcomeUnsupported, carries accept in
Requested, and err is nil.

If the selected handler returns an error or panics, the Handled result is returned
together with that error when it is already a *spanerrors.SpanError, or a HandlerError
otherwise. The HandlerError message only names the mimetype; the handler's own error is
kept as its source and shows up in LogMessage.
*/
func (dispatcher *Dispatcher) Dispatch(
	accept mimetype.AcceptSet, registry *Registry,
) (*Result, error) {
	return dispatcher.DispatchRefusing(accept, nil, registry)
}

// DispatchRefusing is Dispatch for a client that also refused some ranges with q=0,
// as returned by mimetype.ParseAcceptRefused. A wildcard in accept never resolves to a
// registered mimetype covered by a refused range. Exact matches are unaffected.
func (dispatcher *Dispatcher) DispatchRefusing(
	accept mimetype.AcceptSet, refused mimetype.AcceptSet, registry *Registry,
) (*Result, error) {
	if len(accept) == 0 {
		return nil, spanerrors.MalformedRequestError.New(
			"accept set is empty", nil, mimetype.ErrEmptyAccept,
		)
	}

	mimeType, handler, found := dispatcher.selectHandler(accept, refused, registry)
	if !found {
		dispatcher.logger.Debug(
			"no handler for requested formats",
			zap.Strings("requested", accept.Strings()),
			zap.Strings("refused", refused.Strings()),
			zap.Int("registered", registry.Len()),
		)
		return &Result{Outcome: OutcomeUnsupported, Requested: accept}, nil
	}

	dispatcher.logger.Debug(
		"format selected",
		zap.Stringer("mimetype", mimeType),
		zap.Strings("requested", accept.Strings()),
	)

	result := &Result{Outcome: OutcomeHandled, MimeType: mimeType}

	output, err := invoke(handler)
	if err != nil {
		if spanError, ok := spanerrors.AsSpanError(err); ok {
			return result, spanError
		}
		return result, spanerrors.HandlerError.New(
			"handler for "+string(mimeType)+" failed", nil, err,
		)
	}

	result.Output = output
	return result, nil
}

func (dispatcher *Dispatcher) selectHandler(
	accept mimetype.AcceptSet, refused mimetype.AcceptSet, registry *Registry,
) (mimetype.MimeType, Handler, bool) {
	for _, requested := range accept {
		if handler, ok := registry.Lookup(requested); ok {
			return requested, handler, true
		}

		if dispatcher.matchWildcards && requested.IsWildcard() {
			if covered, ok := registry.lookupRange(requested, accept, refused); ok {
				handler, _ := registry.Lookup(covered)
				return covered, handler, true
			}
		}
	}
	return mimetype.UNKNOWN, nil, false
}

// Runs a handler, turning a panic into an error.
func invoke(handler Handler) (output interface{}, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			if recoveredErr, ok := recovered.(error); ok {
				err = xerrors.Errorf("panic in handler: %w", recoveredErr)
			} else {
				err = xerrors.Errorf("panic in handler: %v", recovered)
			}
		}
	}()

	if handler == nil {
		return nil, xerrors.New("handler is nil")
	}
	return handler()
}
