package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/park285/chesscom-review/internal/obslog"
	"go.uber.org/zap"
)

const (
	defaultReadyTimeout  = 4 * time.Second
	newGameRetryAttempts = 3
	newGameRetryDelay    = 150 * time.Millisecond
	mateSentinelCP       = 30000
)

var ErrNoSearchLimits = errors.New("no search limits specified")

type Options struct {
	Threads int
	HashMB  int
	MultiPV int
}

type Limits struct {
	Depth          int
	MoveTimeMillis int
	NodeCap        int
}

// Score is a raw engine score from the side to move.
type Score struct {
	Mate  bool
	Value int
}

// CP collapses mate scores onto ±mateSentinelCP for ordering.
func (s Score) CP() int {
	if !s.Mate {
		return s.Value
	}
	if s.Value >= 0 {
		return mateSentinelCP
	}
	return -mateSentinelCP
}

type Candidate struct {
	Move      string
	Score     Score
	Depth     int
	Principal []string
}

type Session struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	name   string
	mu     sync.Mutex
	search sync.Mutex
}

// NewSession starts the engine process and runs the uci/isready handshake.
// ctx bounds the handshake only; the process outlives it.
func NewSession(ctx context.Context, binaryPath string, opt Options) (*Session, error) {
	if err := validateOptions(opt); err != nil {
		return nil, err
	}

	cmd := exec.Command(binaryPath)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdoutPipe.Close()
		return nil, fmt.Errorf("start engine: %w", err)
	}

	s := &Session{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdoutPipe),
	}

	if err := s.initialize(ctx, opt); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Name is the engine's self-reported "id name", empty if it sent none.
func (s *Session) Name() string { return s.name }

type SearchRequest struct {
	FEN         string
	Moves       []string
	Limits      Limits
	GoOverrides []string
}

type SearchResponse struct {
	Candidates []Candidate
	BestMove   string
	// Headline is the latest multipv 1 score, reported even when the engine
	// sends no pv (mate or stalemate on the board).
	Headline    Score
	HasHeadline bool
}

func (s *Session) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	s.search.Lock()
	defer s.search.Unlock()

	positionCmd := buildPositionCommand(req.FEN, req.Moves)
	if err := s.send(positionCmd); err != nil {
		return SearchResponse{}, fmt.Errorf("send position: %w", err)
	}

	goTokens := req.GoOverrides
	var err error
	if len(goTokens) == 0 {
		goTokens, err = buildGoTokens(req.Limits)
		if err != nil {
			return SearchResponse{}, err
		}
	}

	goCmd := strings.Join(goTokens, " ")
	if err := s.send(goCmd + "\n"); err != nil {
		return SearchResponse{}, fmt.Errorf("send go: %w", err)
	}

	deadline := computeSearchTimeout(req.Limits)
	searchCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	candidates := make(map[int]Candidate)
	var (
		best        string
		headline    Score
		hasHeadline bool
	)

	for {
		line, err := s.readLine(searchCtx)
		if err != nil {
			obslog.L().Warn("uci read error",
				zap.String("position", strings.TrimSpace(positionCmd)),
				zap.String("go", goCmd),
				zap.Error(err))
			return SearchResponse{}, fmt.Errorf("read line: %w", err)
		}
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "info "):
			if mv, cand, ok := parseInfo(line); ok {
				if mv == 1 {
					headline, hasHeadline = cand.Score, true
				}
				if cand.Move != "" {
					candidates[mv] = cand
				}
			}
		case strings.HasPrefix(line, "bestmove"):
			parts := strings.Fields(line)
			if len(parts) >= 2 {
				best = parts[1]
			}
			return SearchResponse{
				Candidates:  collapseCandidates(candidates),
				BestMove:    best,
				Headline:    headline,
				HasHeadline: hasHeadline,
			}, nil
		}
	}
}

func buildPositionCommand(fen string, moves []string) string {
	var sb strings.Builder
	if strings.TrimSpace(fen) == "" || fen == "startpos" {
		sb.WriteString("position startpos")
	} else {
		sb.WriteString("position fen ")
		sb.WriteString(strings.TrimSpace(fen))
	}
	if len(moves) > 0 {
		sb.WriteString(" moves ")
		sb.WriteString(strings.Join(moves, " "))
	}
	sb.WriteString("\n")
	return sb.String()
}

func validateOptions(opt Options) error {
	if opt.HashMB <= 0 {
		return fmt.Errorf("hash size must be > 0: %d", opt.HashMB)
	}
	if opt.MultiPV <= 0 {
		return fmt.Errorf("multipv must be > 0: %d", opt.MultiPV)
	}
	return nil
}

func buildGoTokens(l Limits) ([]string, error) {
	args := []string{"go"}
	if l.Depth > 0 {
		args = append(args, "depth", strconv.Itoa(l.Depth))
	}
	if l.MoveTimeMillis > 0 {
		args = append(args, "movetime", strconv.Itoa(l.MoveTimeMillis))
	}
	if l.NodeCap > 0 {
		args = append(args, "nodes", strconv.Itoa(l.NodeCap))
	}
	if len(args) == 1 {
		return nil, ErrNoSearchLimits
	}
	return args, nil
}

func computeSearchTimeout(l Limits) time.Duration {
	if l.MoveTimeMillis > 0 {
		ms := l.MoveTimeMillis + 2000
		return time.Duration(ms) * time.Millisecond * 3
	}
	if l.Depth > 0 {
		base := time.Duration(l.Depth) * 500 * time.Millisecond
		if base < 6*time.Second {
			base = 6 * time.Second
		}
		if base > 30*time.Second {
			base = 30 * time.Second
		}
		return base
	}
	return 6 * time.Second
}

func parseInfo(line string) (int, Candidate, bool) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return 0, Candidate{}, false
	}
	var (
		multipv  = 1
		depth    int
		score    Score
		scoreSet bool
		pvIdx    = -1
	)

	for i := 0; i < len(parts); i++ {
		switch parts[i] {
		case "string":
			// free-form engine chatter
			return 0, Candidate{}, false
		case "depth":
			if i+1 < len(parts) {
				if v, err := strconv.Atoi(parts[i+1]); err == nil {
					depth = v
				}
				i++
			}
		case "multipv":
			if i+1 < len(parts) {
				if v, err := strconv.Atoi(parts[i+1]); err == nil {
					multipv = v
				}
				i++
			}
		case "score":
			if i+2 < len(parts) {
				kind := parts[i+1]
				val := parts[i+2]
				if v, err := strconv.Atoi(val); err == nil {
					switch kind {
					case "cp":
						score = Score{Value: v}
						scoreSet = true
					case "mate":
						score = Score{Mate: true, Value: v}
						scoreSet = true
					}
				}
				i += 2
			}
		case "pv":
			pvIdx = i + 1
			i = len(parts)
		}
	}

	if !scoreSet {
		return 0, Candidate{}, false
	}
	cand := Candidate{Score: score, Depth: depth}
	if pvIdx != -1 && pvIdx < len(parts) {
		principal := parts[pvIdx:]
		cand.Move = principal[0]
		cand.Principal = append([]string(nil), principal...)
	}
	return multipv, cand, true
}

func collapseCandidates(m map[int]Candidate) []Candidate {
	if len(m) == 0 {
		return nil
	}
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	result := make([]Candidate, 0, len(keys))
	for _, k := range keys {
		result = append(result, m[k])
	}
	return result
}

func (s *Session) EnsureReady(ctx context.Context) error {
	readyCtx, cancel := context.WithTimeout(ctx, defaultReadyTimeout)
	defer cancel()

	if err := s.send("isready\n"); err != nil {
		return fmt.Errorf("send isready: %w", err)
	}
	if err := s.awaitToken(readyCtx, "readyok"); err != nil {
		return fmt.Errorf("wait readyok: %w", err)
	}
	return nil
}

func (s *Session) NewGame(ctx context.Context) error {
	if err := s.send("ucinewgame\n"); err != nil {
		return fmt.Errorf("send ucinewgame: %w", err)
	}

	for attempt := 1; attempt <= newGameRetryAttempts; attempt++ {
		err := s.EnsureReady(ctx)
		if err == nil {
			return nil
		}
		if attempt == newGameRetryAttempts {
			return err
		}
		obslog.L().Debug("uci ensure ready retry",
			zap.Int("attempt", attempt),
			zap.Int("max", newGameRetryAttempts),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(newGameRetryDelay):
		}
	}
	return nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdin != nil {
		_, _ = io.WriteString(s.stdin, "quit\n")
		s.stdin.Close()
	}

	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}

	if s.cmd != nil {
		err := s.cmd.Wait()
		s.cmd = nil
		return ignoreKilled(err)
	}
	return nil
}

func ignoreKilled(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

func (s *Session) initialize(ctx context.Context, opt Options) error {
	initCtx, cancel := context.WithTimeout(ctx, defaultReadyTimeout)
	defer cancel()

	if err := s.send("uci\n"); err != nil {
		return fmt.Errorf("send uci: %w", err)
	}
	for {
		line, err := s.readLine(initCtx)
		if err != nil {
			return fmt.Errorf("wait uciok: %w", err)
		}
		if strings.HasPrefix(line, "id name ") {
			s.name = strings.TrimSpace(strings.TrimPrefix(line, "id name "))
		}
		if strings.Contains(line, "uciok") {
			break
		}
	}

	if err := s.applyOptions(opt); err != nil {
		return err
	}

	if err := s.send("isready\n"); err != nil {
		return fmt.Errorf("send isready: %w", err)
	}
	if err := s.awaitToken(initCtx, "readyok"); err != nil {
		return fmt.Errorf("wait readyok: %w", err)
	}

	return nil
}

func (s *Session) applyOptions(opt Options) error {
	threadCount := opt.Threads
	if threadCount <= 0 {
		threadCount = 1
	}
	cmds := []string{
		fmt.Sprintf("setoption name Threads value %d\n", threadCount),
		fmt.Sprintf("setoption name Hash value %d\n", opt.HashMB),
		fmt.Sprintf("setoption name MultiPV value %d\n", opt.MultiPV),
	}
	for _, cmd := range cmds {
		if err := s.send(cmd); err != nil {
			return fmt.Errorf("apply options: %w", err)
		}
	}
	return nil
}

func (s *Session) send(msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stdin == nil {
		return io.ErrClosedPipe
	}
	_, err := io.WriteString(s.stdin, msg)
	return err
}

func (s *Session) awaitToken(ctx context.Context, token string) error {
	for {
		line, err := s.readLine(ctx)
		if err != nil {
			return err
		}
		if strings.Contains(line, token) {
			return nil
		}
	}
}

func (s *Session) readLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		line, err := s.stdout.ReadString('\n')
		ch <- result{line: strings.TrimSpace(line), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		return res.line, res.err
	}
}
