// Package ucitest provides scripted stand-in engines for tests.
package ucitest

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
)

// Analysis answers every "go" with three lines and a bestmove.
const Analysis = `#!/bin/sh
while IFS= read -r line; do
  case "$line" in
    uci) echo "id name FakeFish 1.0"; echo "uciok" ;;
    isready) echo "readyok" ;;
    go*)
      echo "info string NNUE evaluation enabled"
      echo "info depth 4 seldepth 5 multipv 1 score cp 12 nodes 50 pv e2e4"
      echo "info depth 5 seldepth 6 multipv 1 score cp 34 nodes 100 pv e2e4 e7e5 g1f3"
      echo "info depth 5 seldepth 6 multipv 2 score cp 20 nodes 100 pv d2d4 d7d5"
      echo "info depth 5 seldepth 6 multipv 3 score mate -3 nodes 100 pv f2f3 e7e5"
      echo "bestmove e2e4 ponder e7e5" ;;
    quit) exit 0 ;;
  esac
done
`

// Checkmated reports a mate-0 headline without any pv.
const Checkmated = `#!/bin/sh
while IFS= read -r line; do
  case "$line" in
    uci) echo "id name FakeFish 1.0"; echo "uciok" ;;
    isready) echo "readyok" ;;
    go*)
      echo "info depth 0 score mate 0"
      echo "bestmove (none)" ;;
    quit) exit 0 ;;
  esac
done
`

// CrashOnGo completes the handshake and exits on the first search.
const CrashOnGo = `#!/bin/sh
while IFS= read -r line; do
  case "$line" in
    uci) echo "id name FakeFish 1.0"; echo "uciok" ;;
    isready) echo "readyok" ;;
    go*) exit 3 ;;
    quit) exit 0 ;;
  esac
done
`

// Mute never answers the handshake.
const Mute = `#!/bin/sh
while IFS= read -r line; do
  :
done
`

// Write stores script as an executable in a temp dir and returns its path.
// The test is skipped where a POSIX shell is unavailable.
func Write(t testing.TB, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script engines need a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found")
	}
	path := filepath.Join(t.TempDir(), "fakefish")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake engine: %v", err)
	}
	return path
}
