package uci

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"sync"
)

var (
	ErrPoolClosed        = errors.New("engine pool closed")
	errPoolAtCapacity    = errors.New("engine pool at capacity")
	errBinaryPathMissing = errors.New("binary path required")
)

type PoolConfig struct {
	BinaryPath string
	Options    Options
	Capacity   int
}

// Pool hands out engine sessions with one search in flight per process.
// At most Capacity processes exist at once; Acquire blocks when all are busy.
type Pool struct {
	binaryPath string
	opt        Options
	capacity   int

	mu     sync.Mutex
	total  int
	closed bool
	live   map[*Session]struct{}
	idle   chan *Session
	freed  chan struct{}
}

func NewPool(cfg PoolConfig) (*Pool, error) {
	if cfg.BinaryPath == "" {
		return nil, errBinaryPathMissing
	}
	path, err := exec.LookPath(cfg.BinaryPath)
	if err != nil {
		return nil, fmt.Errorf("engine binary check: %w", err)
	}
	if err := validateOptions(cfg.Options); err != nil {
		return nil, err
	}

	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = defaultCapacity()
	}

	return &Pool{
		binaryPath: path,
		opt:        cfg.Options,
		capacity:   capacity,
		live:       make(map[*Session]struct{}),
		idle:       make(chan *Session, capacity),
		freed:      make(chan struct{}, capacity),
	}, nil
}

func (p *Pool) Capacity() int { return p.capacity }

func (p *Pool) Acquire(ctx context.Context) (*Session, error) {
	for {
		if p.isClosed() {
			return nil, ErrPoolClosed
		}
		select {
		case session := <-p.idle:
			if ok := p.revive(ctx, session); ok {
				return session, nil
			}
			continue
		default:
		}

		session, err := p.create(ctx)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, errPoolAtCapacity) {
			return nil, err
		}

		select {
		case session := <-p.idle:
			if ok := p.revive(ctx, session); ok {
				return session, nil
			}
		case <-p.freed:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Release returns session to the pool. A non-nil err means the process is
// in an unknown state and gets replaced.
func (p *Pool) Release(session *Session, err error) {
	if session == nil {
		return
	}
	if err != nil || p.isClosed() {
		p.discard(session)
		return
	}
	select {
	case p.idle <- session:
	default:
		p.discard(session)
	}
}

func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	var errs []error
	for {
		select {
		case session := <-p.idle:
			if session == nil {
				continue
			}
			if err := p.forget(session); err != nil {
				errs = append(errs, err)
			}
		default:
			if len(errs) > 0 {
				return errors.Join(errs...)
			}
			return nil
		}
	}
}

func (p *Pool) revive(ctx context.Context, session *Session) bool {
	if session == nil {
		return false
	}
	if err := session.EnsureReady(ctx); err != nil {
		p.discard(session)
		return false
	}
	return true
}

func (p *Pool) create(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if p.total >= p.capacity {
		p.mu.Unlock()
		return nil, errPoolAtCapacity
	}
	p.total++
	p.mu.Unlock()

	session, err := NewSession(ctx, p.binaryPath, p.opt)
	if err != nil {
		p.decrement()
		return nil, err
	}
	p.mu.Lock()
	p.live[session] = struct{}{}
	p.mu.Unlock()
	return session, nil
}

func (p *Pool) discard(session *Session) {
	_ = p.forget(session)
}

func (p *Pool) forget(session *Session) error {
	p.mu.Lock()
	_, ok := p.live[session]
	delete(p.live, session)
	p.mu.Unlock()
	err := session.Close()
	if ok {
		p.decrement()
	}
	return err
}

func (p *Pool) decrement() {
	p.mu.Lock()
	if p.total > 0 {
		p.total--
	}
	p.mu.Unlock()
	select {
	case p.freed <- struct{}{}:
	default:
	}
}

func (p *Pool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func defaultCapacity() int {
	cpu := runtime.NumCPU()
	if cpu < 2 {
		return 2
	}
	if cpu > 4 {
		return 4
	}
	return cpu
}
