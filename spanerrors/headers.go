package spanerrors

import (
	"bytes"
	"github.com/illuscio-dev/spanrespond-go/encoding"
	"github.com/illuscio-dev/spanrespond-go/mimetype"
	uuid "github.com/satori/go.uuid"
	"golang.org/x/xerrors"
	"strconv"
	"strings"
)

// Interface for object that can set header information.
type headerSetter interface {
	Set(key string, value string)
}

type headerFetcher interface {
	Get(key string) string
}

// Writes error to an object which implements a Set(key string, value string) method
// like http.Header.
func (spanError *SpanError) ToHeader(
	setter headerSetter, dataEngine encoding.ContentEngine,
) error {
	setter.Set("error-name", spanError.name)
	setter.Set("error-code", strconv.Itoa(spanError.apiCode))
	setter.Set("error-message", spanError.Message)
	setter.Set("error-id", spanError.Id.String())

	if spanError.ErrorData != nil {
		dataBytes := bytes.Buffer{}
		err := dataEngine.Encode(mimetype.JSON, spanError.ErrorData, &dataBytes)
		if err != nil {
			return xerrors.Errorf("error encoding error data: %w", err)
		}
		setter.Set("error-data", dataBytes.String())
	}

	return nil
}

/*
ErrorFromHeaders generates an error object from the headers of an HTTP response. If a
SpanError can be made from the header data, a pointer to it is returned. If an error
code is present in the headers but the rest of the data is malformed, hasError is
returned as true and err describes the parsing issue.

If the headers do not contain an error, hasError will be false, spanError will be nil,
and err will specify that no error was found.
*/
func ErrorFromHeaders(
	headers headerFetcher,
	dataEngine encoding.ContentEngine,
	errorTypeCodeIndex map[int]*SpanErrorType,
) (spanError *SpanError, hasError bool, err error) {
	errorCodeStr := headers.Get("error-code")
	if errorCodeStr == "" {
		return nil, false, xerrors.New("no error in headers")
	}

	errorCode, err := strconv.Atoi(errorCodeStr)
	if err != nil {
		return nil, false, xerrors.New("error-code not int")
	}

	if errorTypeCodeIndex == nil {
		return nil, true, xerrors.New("no error index provided")
	}
	errorType, ok := errorTypeCodeIndex[errorCode]
	if !ok {
		return nil, true, xerrors.New("no known error for code " + errorCodeStr)
	}

	errorID, err := uuid.FromString(headers.Get("error-id"))
	if err != nil {
		return nil, true, xerrors.New("error id is not valid UUID")
	}

	var errorData map[string]interface{}
	if errorDataStr := headers.Get("error-data"); errorDataStr != "" {
		errorData = make(map[string]interface{})
		err := dataEngine.Decode(
			mimetype.JSON, &errorData, strings.NewReader(errorDataStr),
		)
		if err != nil {
			return nil, true, xerrors.New("error data could not be parsed as JSON")
		}
	}

	spanError = errorType.New(headers.Get("error-message"), errorData, nil)
	spanError.Id = errorID

	return spanError, true, nil
}
