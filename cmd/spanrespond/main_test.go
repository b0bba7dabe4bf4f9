package main

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"bytes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(test *testing.T, args ...string) (string, error) {
	root := newRootCommand()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestFormatsCommand(test *testing.T) {
	assert := assert.New(test)

	out, err := execute(test, "formats")
	require.NoError(test, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Contains(lines, "application/json (decodes)")
	assert.Contains(lines, "application/bson (decodes)")
	assert.Contains(lines, "text/html")
	assert.Len(lines, 6)
}

func TestNegotiateCommand(test *testing.T) {
	assert := assert.New(test)

	out, err := execute(
		test,
		"negotiate",
		"--accept", "text/html;q=0.5, application/json",
		"--format", "html",
		"--format", "json",
	)
	require.NoError(test, err)

	assert.True(strings.HasPrefix(out, "application/json\n{"), out)
	assert.Contains(out, `"message":"negotiated"`)
}

func TestNegotiateHTML(test *testing.T) {
	out, err := execute(
		test, "negotiate", "-a", "text/html", "-f", "json,html",
	)
	require.NoError(test, err)
	assert.Equal(test, "text/html\n<p>negotiated</p>\n", out)
}

func TestNegotiateWildcardDefault(test *testing.T) {
	out, err := execute(test, "negotiate", "-f", "yaml,json")
	require.NoError(test, err)
	assert.True(test, strings.HasPrefix(out, "application/yaml\nmessage: negotiated\n"), out)
}

func TestNegotiateSkipsRefused(test *testing.T) {
	out, err := execute(
		test, "negotiate", "-a", "application/json;q=0, */*", "-f", "json,yaml",
	)
	require.NoError(test, err)
	assert.True(test, strings.HasPrefix(out, "application/yaml\n"), out)
}

func TestNegotiateUnsupported(test *testing.T) {
	_, err := execute(test, "negotiate", "-a", "text/csv", "-f", "json")
	require.Error(test, err)
	assert.Contains(test, err.Error(), "none of [text/csv] is in [json]")
}

func TestNegotiateBadAccept(test *testing.T) {
	_, err := execute(test, "negotiate", "-a", "json;q=x")
	require.Error(test, err)
	assert.Contains(test, err.Error(), "invalid accept")
}

func TestNegotiateConfigFile(test *testing.T) {
	path := filepath.Join(test.TempDir(), "spanrespond.yaml")
	require.NoError(test, os.WriteFile(path, []byte("match_wildcards: false\n"), 0o600))

	_, err := execute(test, "--config", path, "negotiate", "-a", "*/*", "-f", "json")
	require.Error(test, err)
	assert.Contains(test, err.Error(), "none of")
}

func TestMissingConfigFile(test *testing.T) {
	_, err := execute(test, "--config", "/does/not/exist.yaml", "formats")
	require.Error(test, err)
	assert.Contains(test, err.Error(), "error reading config")
}
