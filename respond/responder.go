package respond

import (
	"bytes"
	"github.com/illuscio-dev/spanrespond-go/config"
	"github.com/illuscio-dev/spanrespond-go/dispatch"
	"github.com/illuscio-dev/spanrespond-go/encoding"
	"github.com/illuscio-dev/spanrespond-go/mimetype"
	"github.com/illuscio-dev/spanrespond-go/spanerrors"
	"go.uber.org/zap"
	"golang.org/x/xerrors"
	"net/http"
	"strings"
)

// Options controls where a Responder reads client preferences from.
type Options struct {
	// Used when a request has no Accept header. Empty means such a request is
	// malformed.
	DefaultAccept mimetype.AcceptSet
	// Query parameter overriding the Accept header, for example "format" so that
	// "?format=json" asks for JSON. Empty disables the override.
	FormatParam string
	// Let media ranges like "*/*" match the first registered format they cover.
	MatchWildcards bool
}

// OptionsFromConfig maps loaded configuration onto Options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	options := Options{
		FormatParam:    cfg.FormatParam,
		MatchWildcards: cfg.MatchWildcards,
	}

	if strings.TrimSpace(cfg.DefaultAccept) != "" {
		defaultAccept, err := mimetype.ParseAccept(cfg.DefaultAccept)
		if err != nil {
			return Options{}, xerrors.Errorf("invalid default_accept: %w", err)
		}
		options.DefaultAccept = defaultAccept
	}

	return options, nil
}

// ActionFunc registers the formats an action answers with. It is called once per
// request, so handlers can close over request data.
type ActionFunc func(request *http.Request, formats *dispatch.Registry)

/*
Responder is the HTTP side of format negotiation. It reads the client's preferences
from a request, dispatches them against an action's Registry, and writes either the
encoded output of the chosen handler or an error response:

• 400 with a MalformedRequestError when the preferences are missing or unparsable.

• 406 with an UnsupportedFormatError when no registered format was requested.

• the error type's status (500 by default) when the handler or the encoder fails.

Errors are described in the error-* headers written by SpanError.ToHeader.
*/
type Responder struct {
	engine     encoding.ContentEngine
	dispatcher *dispatch.Dispatcher
	logger     *zap.Logger
	options    Options
}

// NewResponder returns a Responder encoding output with engine. A nil logger disables
// logging.
func NewResponder(
	engine encoding.ContentEngine, logger *zap.Logger, options Options,
) *Responder {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Responder{
		engine: engine,
		dispatcher: dispatch.New(
			dispatch.WithLogger(logger),
			dispatch.WithWildcards(options.MatchWildcards),
		),
		logger:  logger,
		options: options,
	}
}

// Action returns an http.Handler that builds a fresh Registry with build for every
// request and responds with it. name only labels log lines.
func (responder *Responder) Action(name string, build ActionFunc) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		formats := dispatch.NewRegistry()
		build(request, formats)
		responder.respond(name, writer, request, formats)
	})
}

// Respond negotiates and writes a response for request from formats.
func (responder *Responder) Respond(
	writer http.ResponseWriter, request *http.Request, formats *dispatch.Registry,
) {
	responder.respond("", writer, request, formats)
}

/*
AcceptSet returns the client's preferences for request. The format query parameter wins
over the Accept header, and DefaultAccept stands in for a missing header. Errors wrap
the mimetype package's Err* values.
*/
func (responder *Responder) AcceptSet(request *http.Request) (mimetype.AcceptSet, error) {
	accept, _, err := responder.preferences(request)
	return accept, err
}

// Returns the accepted and refused ranges of request.
func (responder *Responder) preferences(
	request *http.Request,
) (accept mimetype.AcceptSet, refused mimetype.AcceptSet, err error) {
	if responder.options.FormatParam != "" {
		if format := request.URL.Query().Get(responder.options.FormatParam); format != "" {
			accept, err = mimetype.NewAcceptSet(strings.Split(format, ",")...)
			return accept, nil, err
		}
	}

	header := request.Header.Get("Accept")
	if strings.TrimSpace(header) == "" && len(responder.options.DefaultAccept) > 0 {
		return responder.options.DefaultAccept, nil, nil
	}

	return mimetype.ParseAcceptRefused(header)
}

func (responder *Responder) respond(
	action string,
	writer http.ResponseWriter,
	request *http.Request,
	formats *dispatch.Registry,
) {
	logger := responder.logger.With(
		zap.String("action", action),
		zap.String("method", request.Method),
		zap.String("path", request.URL.Path),
	)

	writer.Header().Add("Vary", "Accept")

	accept, refused, err := responder.preferences(request)
	if err != nil {
		responder.writeError(logger, writer, acceptError(err, formats))
		return
	}

	result, err := responder.dispatcher.DispatchRefusing(accept, refused, formats)
	if err != nil {
		responder.writeError(logger, writer, asSpanError(err))
		return
	}

	if result.Unsupported() {
		responder.writeError(logger, writer, unsupportedError(result.Requested, formats))
		return
	}

	body := new(bytes.Buffer)
	if err := responder.engine.Encode(result.MimeType, result.Output, body); err != nil {
		responder.writeError(logger, writer, spanerrors.ResponseEncodingError.New(
			"could not encode response as "+string(result.MimeType), nil, err,
		))
		return
	}

	logger.Debug(
		"responding",
		zap.Stringer("mimetype", result.MimeType),
		zap.Int("bytes", body.Len()),
	)

	writer.Header().Set("Content-Type", string(result.MimeType))
	writer.WriteHeader(http.StatusOK)
	if _, err := body.WriteTo(writer); err != nil {
		logger.Warn("error writing response body", zap.Error(err))
	}
}

func (responder *Responder) writeError(
	logger *zap.Logger, writer http.ResponseWriter, spanError *spanerrors.SpanError,
) {
	status := spanError.HttpCode()
	if status < 100 {
		status = http.StatusInternalServerError
	}

	fields := []zap.Field{
		zap.String("error_name", spanError.Name()),
		zap.String("error_id", spanError.Id.String()),
		zap.Int("status", status),
	}
	if status >= http.StatusInternalServerError {
		logger.Error(spanError.Message, append(fields, zap.String("detail", spanError.LogMessage()))...)
	} else {
		logger.Warn(spanError.Message, fields...)
	}

	header := writer.Header()
	if err := spanError.ToHeader(header, responder.engine); err != nil {
		logger.Warn("error writing error headers", zap.Error(err))
	}
	header.Set("Content-Type", "text/plain; charset=utf-8")
	header.Set("X-Content-Type-Options", "nosniff")

	writer.WriteHeader(status)
	if _, err := writer.Write([]byte(spanError.Error() + "\n")); err != nil {
		logger.Warn("error writing error body", zap.Error(err))
	}
}

// Converts a failure to read preferences into the error sent to the client.
func acceptError(err error, formats *dispatch.Registry) *spanerrors.SpanError {
	if xerrors.Is(err, mimetype.ErrNothingAcceptable) {
		return unsupportedError(nil, formats)
	}
	return spanerrors.MalformedRequestError.New(
		"could not read accepted formats: "+err.Error(), nil, err,
	)
}

func unsupportedError(
	requested mimetype.AcceptSet, formats *dispatch.Registry,
) *spanerrors.SpanError {
	supported := formats.Formats()
	supportedNames := make([]string, len(supported))
	for index, mimeType := range supported {
		supportedNames[index] = string(mimeType)
	}

	return spanerrors.UnsupportedFormatError.New(
		"none of the requested formats are supported",
		map[string]interface{}{
			"requested": requested.Strings(),
			"supported": supportedNames,
		},
		nil,
	)
}

func asSpanError(err error) *spanerrors.SpanError {
	if spanError, ok := spanerrors.AsSpanError(err); ok {
		return spanError
	}
	return spanerrors.APIError.New("unexpected error while negotiating", nil, err)
}
