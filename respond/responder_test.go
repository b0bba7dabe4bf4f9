package respond_test

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"github.com/illuscio-dev/spanrespond-go/config"
	"github.com/illuscio-dev/spanrespond-go/dispatch"
	"github.com/illuscio-dev/spanrespond-go/encoding"
	"github.com/illuscio-dev/spanrespond-go/mimetype"
	"github.com/illuscio-dev/spanrespond-go/respond"
	"github.com/illuscio-dev/spanrespond-go/spanerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/xerrors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type Wizard struct {
	Name  string `codec:"name" xml:"name"`
	House string `codec:"house" xml:"house"`
}

var harry = Wizard{Name: "Harry", House: "Gryffindor"}

func createEngine(test *testing.T) encoding.ContentEngine {
	engine, err := encoding.NewContentEngine(false)
	require.NoError(test, err)
	return engine
}

func createResponder(test *testing.T, options respond.Options) *respond.Responder {
	return respond.NewResponder(createEngine(test), nil, options)
}

func wizardFormats() *dispatch.Registry {
	return dispatch.NewRegistry().
		JSON(func() (interface{}, error) { return harry, nil }).
		HTML(func() (interface{}, error) { return "<h1>Harry</h1>", nil })
}

func serve(
	responder *respond.Responder, formats *dispatch.Registry, target string, accept string,
) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodGet, target, nil)
	if accept != "" {
		request.Header.Set("Accept", accept)
	}
	recorder := httptest.NewRecorder()
	responder.Respond(recorder, request, formats)
	return recorder
}

func loadError(
	test *testing.T, recorder *httptest.ResponseRecorder,
) *spanerrors.SpanError {
	spanErr, hasError, err := spanerrors.ErrorFromHeaders(
		recorder.Header(), createEngine(test), spanerrors.ErrorTypeCodeIndex,
	)
	require.NoError(test, err)
	require.True(test, hasError)
	return spanErr
}

func TestRespondJSON(test *testing.T) {
	assert := assert.New(test)

	responder := createResponder(test, respond.Options{})
	recorder := serve(responder, wizardFormats(), "/wizards/harry", "application/json")

	assert.Equal(http.StatusOK, recorder.Code)
	assert.Equal("application/json", recorder.Header().Get("Content-Type"))
	assert.Equal("Accept", recorder.Header().Get("Vary"))
	assert.Empty(recorder.Header().Get("error-code"))

	loaded := Wizard{}
	require.NoError(
		test, createEngine(test).Decode(mimetype.JSON, &loaded, recorder.Body),
	)
	assert.Equal(harry, loaded)
}

func TestRespondClientOrder(test *testing.T) {
	assert := assert.New(test)

	responder := createResponder(test, respond.Options{})
	recorder := serve(
		responder,
		wizardFormats(),
		"/",
		"text/csv, text/html;q=0.5, application/json;q=0.9",
	)

	assert.Equal(http.StatusOK, recorder.Code)
	assert.Equal("application/json", recorder.Header().Get("Content-Type"))
}

func TestRespondHTML(test *testing.T) {
	assert := assert.New(test)

	responder := createResponder(test, respond.Options{})
	recorder := serve(responder, wizardFormats(), "/", "text/html")

	assert.Equal(http.StatusOK, recorder.Code)
	assert.Equal("text/html", recorder.Header().Get("Content-Type"))
	assert.Equal("<h1>Harry</h1>", recorder.Body.String())
}

func TestRespondDefaultAccept(test *testing.T) {
	assert := assert.New(test)

	responder := createResponder(
		test, respond.Options{DefaultAccept: mimetype.AcceptSet{mimetype.HTML}},
	)
	recorder := serve(responder, wizardFormats(), "/", "")

	assert.Equal(http.StatusOK, recorder.Code)
	assert.Equal("<h1>Harry</h1>", recorder.Body.String())
}

func TestRespondNoAccept(test *testing.T) {
	assert := assert.New(test)

	responder := createResponder(test, respond.Options{})
	recorder := serve(responder, wizardFormats(), "/", "")

	assert.Equal(http.StatusBadRequest, recorder.Code)
	assert.Equal("text/plain; charset=utf-8", recorder.Header().Get("Content-Type"))

	spanErr := loadError(test, recorder)
	assert.True(spanErr.IsType(spanerrors.MalformedRequestError))
	assert.Contains(recorder.Body.String(), "MalformedRequestError (1001)")
}

func TestRespondMalformedAccept(test *testing.T) {
	responder := createResponder(test, respond.Options{})
	recorder := serve(responder, wizardFormats(), "/", "application/json;q=2")

	assert.Equal(test, http.StatusBadRequest, recorder.Code)
	assert.True(test, loadError(test, recorder).IsType(spanerrors.MalformedRequestError))
}

func TestRespondUnsupported(test *testing.T) {
	assert := assert.New(test)

	responder := createResponder(test, respond.Options{})
	recorder := serve(responder, wizardFormats(), "/", "text/csv, application/bson")

	assert.Equal(http.StatusNotAcceptable, recorder.Code)

	spanErr := loadError(test, recorder)
	assert.True(spanErr.IsType(spanerrors.UnsupportedFormatError))
	assert.Equal(
		[]interface{}{"text/csv", "application/bson"}, spanErr.ErrorData["requested"],
	)
	assert.Equal(
		[]interface{}{"application/json", "text/html"}, spanErr.ErrorData["supported"],
	)
}

func TestRespondNothingAcceptable(test *testing.T) {
	responder := createResponder(test, respond.Options{})
	recorder := serve(responder, wizardFormats(), "/", "application/json;q=0")

	assert.Equal(test, http.StatusNotAcceptable, recorder.Code)
	assert.True(test, loadError(test, recorder).IsType(spanerrors.UnsupportedFormatError))
}

func TestRespondWildcards(test *testing.T) {
	cases := []struct {
		name           string
		matchWildcards bool
		accept         string
		status         int
		contentType    string
	}{
		{"any enabled", true, "*/*", http.StatusOK, "application/json"},
		{"text range enabled", true, "text/*", http.StatusOK, "text/html"},
		{"any disabled", false, "*/*", http.StatusNotAcceptable, ""},
		{"exact beats range", true, "*/*;q=0.1, text/html", http.StatusOK, "text/html"},
	}

	for _, thisCase := range cases {
		thisCase := thisCase
		test.Run(thisCase.name, func(subTest *testing.T) {
			responder := createResponder(
				subTest, respond.Options{MatchWildcards: thisCase.matchWildcards},
			)
			recorder := serve(responder, wizardFormats(), "/", thisCase.accept)

			assert.Equal(subTest, thisCase.status, recorder.Code)
			if thisCase.contentType != "" {
				assert.Equal(
					subTest, thisCase.contentType, recorder.Header().Get("Content-Type"),
				)
			}
		})
	}
}

func TestRespondFormatParam(test *testing.T) {
	assert := assert.New(test)

	responder := createResponder(test, respond.Options{FormatParam: "format"})

	recorder := serve(responder, wizardFormats(), "/?format=json", "text/html")
	assert.Equal(http.StatusOK, recorder.Code)
	assert.Equal("application/json", recorder.Header().Get("Content-Type"))

	recorder = serve(responder, wizardFormats(), "/?format=csv,html", "application/json")
	assert.Equal(http.StatusOK, recorder.Code)
	assert.Equal("text/html", recorder.Header().Get("Content-Type"))

	// Without the parameter the header is used.
	recorder = serve(responder, wizardFormats(), "/", "text/html")
	assert.Equal("text/html", recorder.Header().Get("Content-Type"))
}

func TestRespondFormatParamDisabled(test *testing.T) {
	responder := createResponder(test, respond.Options{})
	recorder := serve(responder, wizardFormats(), "/?format=json", "text/html")

	assert.Equal(test, "text/html", recorder.Header().Get("Content-Type"))
}

func TestRespondHandlerError(test *testing.T) {
	assert := assert.New(test)

	formats := dispatch.NewRegistry().JSON(func() (interface{}, error) {
		return nil, xerrors.New("dial tcp 10.0.0.5:5432: password=hunter2 rejected")
	})

	core, logs := observer.New(zap.ErrorLevel)
	responder := respond.NewResponder(createEngine(test), zap.New(core), respond.Options{})
	recorder := serve(responder, formats, "/", "application/json")

	assert.Equal(http.StatusInternalServerError, recorder.Code)

	spanErr := loadError(test, recorder)
	assert.True(spanErr.IsType(spanerrors.HandlerError))
	assert.Equal("handler for application/json failed", spanErr.Message)

	// Handler detail reaches the log, never the client.
	assert.NotContains(recorder.Body.String(), "hunter2")
	assert.NotContains(recorder.Header().Get("error-message"), "hunter2")

	entries := logs.All()
	require.Len(test, entries, 1)
	assert.Contains(entries[0].ContextMap()["detail"], "password=hunter2")
}

func TestRespondHandlerPanicHidden(test *testing.T) {
	formats := dispatch.NewRegistry().HTML(func() (interface{}, error) {
		panic("template /srv/secret/page.tmpl missing")
	})

	responder := createResponder(test, respond.Options{})
	recorder := serve(responder, formats, "/", "text/html")

	assert.Equal(test, http.StatusInternalServerError, recorder.Code)
	assert.NotContains(test, recorder.Body.String(), "/srv/secret")
	assert.NotContains(test, recorder.Header().Get("error-message"), "/srv/secret")
}

func TestRespondWildcardSkipsRefused(test *testing.T) {
	assert := assert.New(test)

	responder := createResponder(test, respond.Options{MatchWildcards: true})

	recorder := serve(responder, wizardFormats(), "/", "application/json;q=0, */*;q=0.5")
	assert.Equal(http.StatusOK, recorder.Code)
	assert.Equal("text/html", recorder.Header().Get("Content-Type"))

	recorder = serve(
		responder, wizardFormats(), "/", "application/json;q=0, text/html;q=0, */*",
	)
	assert.Equal(http.StatusNotAcceptable, recorder.Code)
	assert.True(loadError(test, recorder).IsType(spanerrors.UnsupportedFormatError))
}

func TestRespondStructuredSuffix(test *testing.T) {
	assert := assert.New(test)

	formats := dispatch.NewRegistry().XML(func() (interface{}, error) {
		return harry, nil
	})

	responder := createResponder(test, respond.Options{})
	recorder := serve(responder, formats, "/", "image/svg+xml")

	assert.Equal(http.StatusNotAcceptable, recorder.Code)
	spanErr := loadError(test, recorder)
	assert.Equal([]interface{}{"image/svg+xml"}, spanErr.ErrorData["requested"])
}

func TestRespondNaNQuality(test *testing.T) {
	responder := createResponder(test, respond.Options{})
	recorder := serve(
		responder, wizardFormats(), "/", "text/html;q=NaN, application/json;q=0.9",
	)

	assert.Equal(test, http.StatusBadRequest, recorder.Code)
	assert.True(test, loadError(test, recorder).IsType(spanerrors.MalformedRequestError))
}

func TestRespondHandlerSpanError(test *testing.T) {
	assert := assert.New(test)

	notFound := spanerrors.NewSpanErrorType("NotFound", 2404, http.StatusNotFound)
	formats := dispatch.NewRegistry().JSON(func() (interface{}, error) {
		return nil, notFound.New("no such wizard", nil, nil)
	})

	responder := createResponder(test, respond.Options{})
	recorder := serve(responder, formats, "/", "application/json")

	assert.Equal(http.StatusNotFound, recorder.Code)
	assert.Equal("NotFound", recorder.Header().Get("error-name"))
	assert.Equal("2404", recorder.Header().Get("error-code"))
	assert.Equal("no such wizard", recorder.Header().Get("error-message"))
}

func TestRespondServerErrorDefaultsTo500(test *testing.T) {
	formats := dispatch.NewRegistry().JSON(func() (interface{}, error) {
		return nil, spanerrors.ServerError.New("boom", nil, nil)
	})

	responder := createResponder(test, respond.Options{})
	recorder := serve(responder, formats, "/", "application/json")

	assert.Equal(test, http.StatusInternalServerError, recorder.Code)
}

func TestRespondHandlerPanic(test *testing.T) {
	formats := dispatch.NewRegistry().JSON(func() (interface{}, error) {
		panic("stop")
	})

	responder := createResponder(test, respond.Options{})
	recorder := serve(responder, formats, "/", "application/json")

	assert.Equal(test, http.StatusInternalServerError, recorder.Code)
	assert.True(test, loadError(test, recorder).IsType(spanerrors.HandlerError))
}

func TestRespondEncodeError(test *testing.T) {
	assert := assert.New(test)

	formats := dispatch.NewRegistry().XML(func() (interface{}, error) {
		return map[string]string{"a": "b"}, nil
	})

	responder := createResponder(test, respond.Options{})
	recorder := serve(responder, formats, "/", "application/xml")

	assert.Equal(http.StatusInternalServerError, recorder.Code)

	spanErr := loadError(test, recorder)
	assert.True(spanErr.IsType(spanerrors.ResponseEncodingError))
	assert.Equal("could not encode response as application/xml", spanErr.Message)
}

func TestRespondUnregisteredEncoder(test *testing.T) {
	formats := dispatch.NewRegistry().Register(
		mimetype.MimeType("text/csv"),
		func() (interface{}, error) { return "a,b", nil },
	)

	responder := createResponder(test, respond.Options{})
	recorder := serve(responder, formats, "/", "text/csv")

	assert.Equal(test, http.StatusInternalServerError, recorder.Code)
	assert.True(test, loadError(test, recorder).IsType(spanerrors.ResponseEncodingError))
}

func TestRespondHandlerRunsOnce(test *testing.T) {
	calls := map[string]int{}
	formats := dispatch.NewRegistry().
		JSON(func() (interface{}, error) {
			calls["json"]++
			return harry, nil
		}).
		HTML(func() (interface{}, error) {
			calls["html"]++
			return "<p/>", nil
		})

	responder := createResponder(test, respond.Options{})
	serve(responder, formats, "/", "text/html, application/json")

	assert.Equal(test, map[string]int{"html": 1}, calls)
}

func TestAction(test *testing.T) {
	assert := assert.New(test)

	responder := createResponder(test, respond.Options{})
	handler := responder.Action(
		"greet",
		func(request *http.Request, formats *dispatch.Registry) {
			name := request.URL.Query().Get("name")
			formats.Text(func() (interface{}, error) {
				return "hello " + name, nil
			})
		},
	)

	server := httptest.NewServer(handler)
	defer server.Close()
	defer server.Client().CloseIdleConnections()

	request, err := http.NewRequest(http.MethodGet, server.URL+"/?name=ron", nil)
	require.NoError(test, err)
	request.Header.Set("Accept", "text/plain")

	response, err := server.Client().Do(request)
	require.NoError(test, err)

	assert.Equal(http.StatusOK, response.StatusCode)
	assert.Equal("text/plain", response.Header.Get("Content-Type"))

	// Decode closes the body.
	body := ""
	require.NoError(
		test, createEngine(test).Decode(mimetype.TEXT, &body, response.Body),
	)
	assert.Equal("hello ron", body)
}

func TestAcceptSet(test *testing.T) {
	assert := assert.New(test)

	responder := createResponder(test, respond.Options{FormatParam: "f"})

	request := httptest.NewRequest(http.MethodGet, "/?f=yaml", nil)
	request.Header.Set("Accept", "application/json")

	accept, err := responder.AcceptSet(request)
	require.NoError(test, err)
	assert.Equal(mimetype.AcceptSet{mimetype.YAML}, accept)

	request = httptest.NewRequest(http.MethodGet, "/", nil)
	_, err = responder.AcceptSet(request)
	assert.True(xerrors.Is(err, mimetype.ErrEmptyAccept))
}

func TestRespondLogging(test *testing.T) {
	assert := assert.New(test)

	core, logs := observer.New(zap.DebugLevel)
	responder := respond.NewResponder(
		createEngine(test), zap.New(core), respond.Options{},
	)

	formats := dispatch.NewRegistry().JSON(func() (interface{}, error) {
		return nil, xerrors.New("database down")
	})

	serve(responder, wizardFormats(), "/", "text/csv")
	serve(responder, formats, "/", "application/json")

	warnings := logs.FilterLevelExact(zap.WarnLevel).All()
	require.Len(test, warnings, 1)
	assert.Equal("none of the requested formats are supported", warnings[0].Message)
	assert.Equal("UnsupportedFormatError", warnings[0].ContextMap()["error_name"])

	errorLogs := logs.FilterLevelExact(zap.ErrorLevel).All()
	require.Len(test, errorLogs, 1)
	assert.Equal("HandlerError", errorLogs[0].ContextMap()["error_name"])
	assert.Equal(int64(http.StatusInternalServerError), errorLogs[0].ContextMap()["status"])
}

func TestOptionsFromConfig(test *testing.T) {
	assert := assert.New(test)

	cfg := &config.Config{
		DefaultAccept:  "text/html, application/json;q=0.5",
		MatchWildcards: true,
		FormatParam:    "format",
	}

	options, err := respond.OptionsFromConfig(cfg)
	require.NoError(test, err)

	assert.Equal(mimetype.AcceptSet{mimetype.HTML, mimetype.JSON}, options.DefaultAccept)
	assert.True(options.MatchWildcards)
	assert.Equal("format", options.FormatParam)

	options, err = respond.OptionsFromConfig(&config.Config{})
	require.NoError(test, err)
	assert.Nil(options.DefaultAccept)

	_, err = respond.OptionsFromConfig(&config.Config{DefaultAccept: "json;q=7"})
	require.Error(test, err)
	assert.True(xerrors.Is(err, mimetype.ErrMalformedAccept))
}
