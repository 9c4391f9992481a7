package msgcat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRendersEmbeddedMessages(t *testing.T) {
	c := Default()

	s, err := c.Render("chesscom.not_found", map[string]any{"Username": "ghost"})
	require.NoError(t, err)
	assert.Equal(t, `Username "ghost" not found on Chess.com`, s)

	s, err = c.Render("stream.complete", map[string]any{"Count": 7})
	require.NoError(t, err)
	assert.Equal(t, "Analysis complete - 7 positions analyzed", s)
}

func TestRenderMissingKeyAndData(t *testing.T) {
	c := Default()

	_, err := c.Render("nope.nothing", nil)
	assert.Error(t, err)

	_, err = c.Render("stream.unknown_type", map[string]any{})
	assert.Error(t, err)

	assert.Equal(t, "fallback", c.RenderOr("stream.unknown_type", map[string]any{}, "fallback"))
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "custom.yaml"), []byte("stream:\n  no_pgn: \"PGN missing\"\n"), 0o644))

	c, err := New(dir)
	require.NoError(t, err)

	s, err := c.Render("stream.no_pgn", nil)
	require.NoError(t, err)
	assert.Equal(t, "PGN missing", s)

	s, err = c.Render("stream.empty", nil)
	require.NoError(t, err)
	assert.Equal(t, "Failed to analyze game", s)
}

func TestOverrideDirRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("stream:\n  no_pgn: a\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yml"), []byte("stream:\n  no_pgn: b\n"), 0o644))

	_, err := New(dir)
	assert.Error(t, err)
}

func TestNonStringLeafRejected(t *testing.T) {
	_, err := parseYAMLToFlat([]byte("stream:\n  count: 3\n"))
	assert.Error(t, err)
}

func TestNilCatalogRenderOr(t *testing.T) {
	var c *Catalog
	assert.Equal(t, "x", c.RenderOr("stream.empty", nil, "x"))
}
