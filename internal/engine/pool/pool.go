// Package pool owns at most one live transport per authority, lazily
// opened and reused across requests while a response allows it.
package pool

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/GriffinCanCode/BrowserOS/engine/internal/engine/locator"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/logging"
	"go.uber.org/zap"
)

// DialFunc opens the underlying TCP stream. Overridable in tests.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Config controls transport setup.
type Config struct {
	// ConnectTimeout bounds dialing and the TLS handshake. Zero
	// disables the bound.
	ConnectTimeout time.Duration
	Dial           DialFunc
}

// Pool tracks one transport slot per authority. Access to a slot is
// serialized by a per-authority lock held from Acquire to Release, so
// two concurrent fetches to the same authority take turns instead of
// racing on the slot.
type Pool struct {
	mu    sync.Mutex
	conns map[string]net.Conn
	locks map[string]*sync.Mutex

	cfg Config
	log *logging.Logger
}

// New creates an empty pool.
func New(cfg Config, log *logging.Logger) *Pool {
	if cfg.Dial == nil {
		cfg.Dial = func(ctx context.Context, network, addr string) (net.Conn, error) {
			d := net.Dialer{Timeout: cfg.ConnectTimeout}
			return d.DialContext(ctx, network, addr)
		}
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Pool{
		conns: make(map[string]net.Conn),
		locks: make(map[string]*sync.Mutex),
		cfg:   cfg,
		log:   log,
	}
}

// Acquire returns the pooled transport for the locator's authority, or
// opens a new one: a TLS stream with SNI set to the host for https, a
// plain stream otherwise. The caller owns the authority slot until it
// calls Release. The second return reports whether the transport was
// reused.
func (p *Pool) Acquire(ctx context.Context, loc locator.Locator) (net.Conn, bool, error) {
	key := loc.Authority()
	p.authorityLock(key).Lock()

	p.mu.Lock()
	conn, ok := p.conns[key]
	p.mu.Unlock()
	if ok {
		p.log.Debug("reusing pooled transport", zap.String("authority", key))
		return conn, true, nil
	}

	conn, err := p.open(ctx, loc)
	if err != nil {
		p.authorityLock(key).Unlock()
		return nil, false, err
	}

	p.mu.Lock()
	p.conns[key] = conn
	p.mu.Unlock()
	p.log.Debug("opened transport", zap.String("authority", key))
	return conn, false, nil
}

// Release hands the transport back after one exchange. If the response
// asked to keep the connection alive the slot is retained for the next
// request; otherwise the transport is closed and the slot emptied.
func (p *Pool) Release(authority string, conn net.Conn, keepAlive bool) {
	if !keepAlive {
		p.mu.Lock()
		delete(p.conns, authority)
		p.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
	}
	p.authorityLock(authority).Unlock()
}

// Discard closes and forgets the transport, then frees the slot. Used
// when an exchange fails partway.
func (p *Pool) Discard(authority string, conn net.Conn) {
	p.Release(authority, conn, false)
}

// Close shuts every pooled transport.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key, conn := range p.conns {
		conn.Close()
		delete(p.conns, key)
	}
}

func (p *Pool) open(ctx context.Context, loc locator.Locator) (net.Conn, error) {
	if p.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.ConnectTimeout)
		defer cancel()
	}

	conn, err := p.cfg.Dial(ctx, "tcp", loc.Address())
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", loc.Address(), err)
	}

	if !loc.Secure() {
		return conn, nil
	}

	tlsConn := tls.Client(conn, &tls.Config{ServerName: loc.Host})
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake with %s: %w", loc.Host, err)
	}
	return tlsConn, nil
}

func (p *Pool) authorityLock(key string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	lock, ok := p.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[key] = lock
	}
	return lock
}
