package mimetype_test

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"github.com/illuscio-dev/spanrespond-go/mimetype"
	"github.com/stretchr/testify/assert"
	"net/http"
	"testing"
)

func parameterizeFromString(
	test *testing.T, testStrings []string, mimeTypeExpected mimetype.MimeType,
) {
	for _, mimeTypeString := range testStrings {
		mimeTypeExtracted := mimetype.FromString(mimeTypeString)
		assert.Equal(test, mimeTypeExpected, mimeTypeExtracted, mimeTypeString)
	}
}

func parameterizeFromHeader(
	test *testing.T, testStrings []string, mimeTypeExpected mimetype.MimeType,
) {
	for _, mimeTypeString := range testStrings {
		req := http.Request{
			Header: make(http.Header),
		}
		req.Header.Set("Content-Type", mimeTypeString)
		mimeTypeExtracted := mimetype.FromHeader(req.Header)
		assert.Equal(test, mimeTypeExpected, mimeTypeExtracted, mimeTypeString)
	}
}

func runFromCases(
	test *testing.T, name string, values []string, expected mimetype.MimeType,
) {
	test.Run(name+" From String", func(subTest *testing.T) {
		parameterizeFromString(subTest, values, expected)
	})
	test.Run(name+" From Header", func(subTest *testing.T) {
		parameterizeFromHeader(subTest, values, expected)
	})
}

func TestFromJson(test *testing.T) {
	runFromCases(test, "JSON", []string{
		"json",
		"JSON",
		"x-json",
		"application/json",
		"application/JSON",
		"application/x-json",
		"application/json; charset=utf-8",
	}, mimetype.JSON)
}

func TestFromBson(test *testing.T) {
	runFromCases(test, "BSON", []string{
		"bson",
		"BSON",
		"application/bson",
		"application/X-BSON",
	}, mimetype.BSON)
}

func TestFromYaml(test *testing.T) {
	runFromCases(test, "YAML", []string{
		"yaml",
		"application/yaml",
		"application/x-yaml",
		"text/yaml",
	}, mimetype.YAML)
}

func TestFromXml(test *testing.T) {
	runFromCases(test, "XML", []string{
		"xml",
		"application/xml",
		"text/xml",
	}, mimetype.XML)
}

func TestFromHtml(test *testing.T) {
	runFromCases(test, "HTML", []string{
		"html",
		"text/html",
		"TEXT/HTML; charset=utf-8",
		"application/xhtml+xml",
	}, mimetype.HTML)
}

func TestFromText(test *testing.T) {
	runFromCases(test, "TEXT", []string{
		"text",
		"TEXT",
		"text/plain",
		"TEXT/plain",
	}, mimetype.TEXT)
}

func TestFromUnknown(test *testing.T) {
	runFromCases(test, "UNKNOWN", []string{"", "  "}, mimetype.UNKNOWN)
}

func TestFromStringOther(test *testing.T) {
	runFromCases(
		test,
		"Other",
		[]string{"text/csv", "TEXT/CSV", "text/CSV"},
		mimetype.MimeType("text/csv"),
	)
}

func TestFromStringKeepsStructuredSuffix(test *testing.T) {
	cases := []struct {
		value    string
		expected mimetype.MimeType
	}{
		{"image/svg+xml", "image/svg+xml"},
		{"application/atom+xml", "application/atom+xml"},
		{"application/x-ndjson", "application/x-ndjson"},
		{"application/vnd.api+json", "application/vnd.api+json"},
		{"Application/Problem+JSON; charset=utf-8", "application/problem+json"},
		{"csv", "csv"},
	}

	for _, thisCase := range cases {
		thisCase := thisCase
		test.Run(thisCase.value, func(subTest *testing.T) {
			assert.Equal(subTest, thisCase.expected, mimetype.FromString(thisCase.value))
		})
	}
}

func TestTypeParts(test *testing.T) {
	assert := assert.New(test)

	assert.Equal("application", mimetype.JSON.Type())
	assert.Equal("json", mimetype.JSON.Subtype())
	assert.Equal("", mimetype.MimeType("json").Subtype())
	assert.Equal("application/json", mimetype.JSON.String())
}

func TestCovers(test *testing.T) {
	assert := assert.New(test)

	assert.True(mimetype.ANY.Covers(mimetype.JSON))
	assert.True(mimetype.ANY.Covers(mimetype.HTML))
	assert.False(mimetype.ANY.Covers(mimetype.UNKNOWN))

	textRange := mimetype.MimeType("text/*")
	assert.True(textRange.IsWildcard())
	assert.True(textRange.Covers(mimetype.HTML))
	assert.True(textRange.Covers(mimetype.TEXT))
	assert.False(textRange.Covers(mimetype.JSON))

	assert.False(mimetype.JSON.IsWildcard())
	assert.True(mimetype.JSON.Covers(mimetype.JSON))
	assert.False(mimetype.JSON.Covers(mimetype.XML))
}
