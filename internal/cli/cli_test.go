package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/latticeglyph/internal/glyph"
)

const afDigest = "4a0a1d023ff62765581351a36e16c08f3d626c4f18a369c606fbd467770fd5f4"

type run struct {
	stdout, stderr string
	code           int
}

func execute(t *testing.T, args ...string) run {
	t.Helper()
	var out, errOut bytes.Buffer
	code := Execute(context.Background(), args, &out, &errOut)
	return run{stdout: out.String(), stderr: errOut.String(), code: code}
}

func decodeResponse(t *testing.T, data string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(data), &resp), data)
	return resp
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "glyph", cmd.Use)

	for _, name := range []string{"encode", "render", "decode", "verify", "lattice", "test"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	for _, name := range []string{"create", "list", "show", "update", "delete", "validate"} {
		sub, _, err := cmd.Find([]string{"lattice", name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()
	flags := cmd.PersistentFlags()

	verbose := flags.Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)

	assert.Equal(t, "text", flags.Lookup("format").DefValue)
	assert.Equal(t, ":memory:", flags.Lookup("db").DefValue)
	assert.Equal(t, "default", flags.Lookup("lattice").DefValue)
}

func TestInvalidFormat(t *testing.T) {
	r := execute(t, "--format", "xml", "encode", "A")
	assert.Equal(t, ExitCommandError, r.code)
	assert.Contains(t, r.stderr, `invalid format "xml"`)
}

func TestUsageError(t *testing.T) {
	r := execute(t, "encode")
	assert.Equal(t, ExitCommandError, r.code)
	assert.Contains(t, r.stderr, "accepts 1 arg")
}

func TestEncode(t *testing.T) {
	r := execute(t, "encode", "af")
	require.Equal(t, ExitSuccess, r.code, r.stderr)

	enc, err := glyph.ParseEncoding([]byte(r.stdout))
	require.NoError(t, err)
	assert.Equal(t, "default", enc.LatticeID)
	assert.Equal(t, int64(1), enc.LatticeVersion)
	assert.Equal(t, "AF", enc.Text)
	assert.Equal(t, afDigest, enc.Digest)
}

func TestEncode_JSON(t *testing.T) {
	r := execute(t, "--format", "json", "encode", "AF")
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Equal(t, "ok", decodeResponse(t, r.stdout).Status)

	enc, err := glyph.ParseEncoding([]byte(r.stdout))
	require.NoError(t, err)
	assert.Equal(t, afDigest, enc.Digest)
}

func TestEncode_Errors(t *testing.T) {
	r := execute(t, "encode", "A?")
	assert.Equal(t, ExitFailure, r.code)
	assert.Contains(t, r.stderr, "Error [E010]")
	assert.Empty(t, r.stdout)

	r = execute(t, "--format", "json", "encode", "A?")
	assert.Equal(t, ExitFailure, r.code)
	resp := decodeResponse(t, r.stdout)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeUnmapped, resp.Error.Code)

	r = execute(t, "--lattice", "nope", "encode", "A")
	assert.Equal(t, ExitCommandError, r.code)
	assert.Contains(t, r.stderr, "Error [E005]")
}

func TestDecodeAndVerify(t *testing.T) {
	dir := t.TempDir()
	r := execute(t, "encode", "HELLO WORLD")
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	file := writeFile(t, dir, "hello.json", r.stdout)

	r = execute(t, "decode", file)
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Equal(t, "HELLO WORLD\n", r.stdout)

	r = execute(t, "--format", "json", "decode", file)
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	data := decodeResponse(t, r.stdout).Data.(map[string]any)
	assert.Equal(t, "HELLO WORLD", data["text"])
	assert.Equal(t, "default", data["lattice"])

	r = execute(t, "verify", file)
	assert.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, "digest matches")

	r = execute(t, "verify", file, "--digest", afDigest)
	assert.Equal(t, ExitFailure, r.code)
	assert.Contains(t, r.stdout, "does not match")

	r = execute(t, "--format", "json", "verify", file, "--digest", afDigest)
	assert.Equal(t, ExitFailure, r.code)
	data = decodeResponse(t, r.stdout).Data.(map[string]any)
	assert.Equal(t, false, data["match"])
}

func TestDecode_RejectsTamperedEncoding(t *testing.T) {
	dir := t.TempDir()
	r := execute(t, "encode", "HELLO")
	require.Equal(t, ExitSuccess, r.code, r.stderr)

	enc, err := glyph.ParseEncoding([]byte(r.stdout))
	require.NoError(t, err)
	enc.Digest = afDigest
	data, err := enc.MarshalIndent()
	require.NoError(t, err)
	file := writeFile(t, dir, "tampered.json", string(data))

	r = execute(t, "decode", file)
	assert.Equal(t, ExitFailure, r.code)
	assert.Contains(t, r.stderr, "Error [E030]")
}

func TestDecode_BadInput(t *testing.T) {
	dir := t.TempDir()

	r := execute(t, "decode", filepath.Join(dir, "missing.json"))
	assert.Equal(t, ExitCommandError, r.code)
	assert.Contains(t, r.stderr, "read input")

	r = execute(t, "decode", writeFile(t, dir, "empty.json", "  \n"))
	assert.Equal(t, ExitCommandError, r.code)
	assert.Contains(t, r.stderr, "input is empty")

	r = execute(t, "decode", writeFile(t, dir, "junk.json", `{"lattice_id":"default"}`))
	assert.Equal(t, ExitCommandError, r.code)
	assert.Contains(t, r.stderr, "parse encoding")

	r = execute(t, "decode", "--markup", "--current", "x")
	assert.Equal(t, ExitCommandError, r.code)
}

func TestRenderAndDecodeMarkup(t *testing.T) {
	dir := t.TempDir()
	svg := filepath.Join(dir, "hello.svg")

	r := execute(t, "render", "hello world", "--rotation", "90", "--mirror", "--grid", "--nodes", "-o", svg)
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Empty(t, r.stdout)

	r = execute(t, "decode", "--markup", svg)
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Equal(t, "HELLO WORLD\n", r.stdout)
}

func TestRender_Stdout(t *testing.T) {
	r := execute(t, "render", "AF")
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.True(t, len(r.stdout) > 0 && r.stdout[:4] == "<svg", r.stdout)
	assert.Contains(t, r.stdout, `data-rotation="0"`)

	r = execute(t, "--format", "json", "render", "af", "--flip")
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, `"markup": "<svg`)
	assert.NotContains(t, r.stdout, `\u003c`)
	data := decodeResponse(t, r.stdout).Data.(map[string]any)
	assert.Equal(t, "AF", data["text"])
	assert.Contains(t, data["markup"], `data-flip="true"`)
}

func TestRender_Style(t *testing.T) {
	r := execute(t, "render", "AF", "--style", "testdata/style.yaml")
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, `stroke="#ff0000" stroke-width="3"`)
	assert.Contains(t, r.stdout, `class="grid"`)

	r = execute(t, "render", "AF", "--style", "testdata/style.yaml", "--stroke", "blue")
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, `stroke="blue" stroke-width="3"`)

	r = execute(t, "render", "AF", "--style", "testdata/bad_style.yaml")
	assert.Equal(t, ExitCommandError, r.code)
	assert.Contains(t, r.stderr, "strok_width")

	r = execute(t, "render", "AF", "--stroke-width", "0")
	assert.Equal(t, ExitCommandError, r.code)
	assert.Contains(t, r.stderr, "stroke_width")
}

func TestRender_PNG(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "af.png")

	r := execute(t, "render", "AF", "--png", "--size", "64", "-o", out)
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(data[:4]))

	// A buffer is not a terminal.
	r = execute(t, "render", "AF", "--png", "--size", "32")
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Equal(t, "\x89PNG", r.stdout[:4])

	r = execute(t, "render", "AF", "--png", "--size", "0")
	assert.Equal(t, ExitCommandError, r.code)
	assert.Contains(t, r.stderr, "size must be positive")
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, isTerminal(&bytes.Buffer{}))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, isTerminal(f))
}
