// Package live replays the backtested fill/risk model against a
// streaming bar source, one bar at a time.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"short-trade-lab/internal/domain"
	"short-trade-lab/internal/observability"
	"short-trade-lab/internal/series"
)

// Stream errors.
var (
	// ErrStreamExhausted signals an orderly end of the bar stream.
	ErrStreamExhausted = errors.New("live: bar stream exhausted")
)

// BarStream yields closed bars in order. Next blocks until a bar is
// available, the stream ends (ErrStreamExhausted), or the context is
// cancelled.
type BarStream interface {
	Next(ctx context.Context) (domain.Bar, error)
}

// ReplayStream serves a stored series as a stream, for paper sessions
// and for verifying that live behavior matches the backtest.
type ReplayStream struct {
	bars []domain.Bar
	pos  int
}

// NewReplayStream creates a stream over the series' bars.
func NewReplayStream(s *series.Series) *ReplayStream {
	return &ReplayStream{bars: s.Bars()}
}

// Next returns the next bar, or ErrStreamExhausted.
func (r *ReplayStream) Next(ctx context.Context) (domain.Bar, error) {
	if err := ctx.Err(); err != nil {
		return domain.Bar{}, err
	}
	if r.pos >= len(r.bars) {
		return domain.Bar{}, ErrStreamExhausted
	}
	b := r.bars[r.pos]
	r.pos++
	return b, nil
}

// WSStreamConfig configures the websocket kline stream.
type WSStreamConfig struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the backoff between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is the interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is the timeout for reading messages.
	ReadTimeout time.Duration
	// Buffer is the bar channel capacity.
	Buffer int
}

// DefaultWSStreamConfig returns default stream settings.
func DefaultWSStreamConfig() WSStreamConfig {
	return WSStreamConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      20 * time.Second,
		ReadTimeout:       60 * time.Second,
		Buffer:            16,
	}
}

// WSStream consumes confirmed kline pushes from a public websocket
// endpoint and yields them as bars. It reconnects with backoff and
// resubscribes after connection loss; consumers only ever see closed
// bars in order.
type WSStream struct {
	endpoint string
	topic    string
	config   WSStreamConfig

	conn   *websocket.Conn
	connMu sync.Mutex

	bars     chan domain.Bar
	done     chan struct{}
	wg       sync.WaitGroup
	lastOpen int64
}

// NewWSStream connects and subscribes to the kline topic for the
// symbol/interval, e.g. "kline.5.SOLUSDT".
func NewWSStream(ctx context.Context, endpoint, symbol string, intervalMin int, config *WSStreamConfig) (*WSStream, error) {
	cfg := DefaultWSStreamConfig()
	if config != nil {
		cfg = *config
	}

	s := &WSStream{
		endpoint: endpoint,
		topic:    fmt.Sprintf("kline.%d.%s", intervalMin, symbol),
		config:   cfg,
		bars:     make(chan domain.Bar, cfg.Buffer),
		done:     make(chan struct{}),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go s.readLoop()

	s.wg.Add(1)
	go s.pingLoop()

	return s, nil
}

// connect establishes the websocket connection and subscribes.
func (s *WSStream) connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	sub := map[string]any{
		"op":   "subscribe",
		"args": []string{s.topic},
	}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return fmt.Errorf("subscribe %s: %w", s.topic, err)
	}

	s.conn = conn
	return nil
}

// Next returns the next confirmed bar from the stream.
func (s *WSStream) Next(ctx context.Context) (domain.Bar, error) {
	select {
	case <-ctx.Done():
		return domain.Bar{}, ctx.Err()
	case <-s.done:
		return domain.Bar{}, ErrStreamExhausted
	case b := <-s.bars:
		return b, nil
	}
}

// Close shuts the stream down and waits for its goroutines.
func (s *WSStream) Close() error {
	select {
	case <-s.done:
		return nil
	default:
	}
	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	return nil
}

// klinePush mirrors the public kline topic payload.
type klinePush struct {
	Topic string `json:"topic"`
	Data  []struct {
		Start   int64  `json:"start"`
		Open    string `json:"open"`
		High    string `json:"high"`
		Low     string `json:"low"`
		Close   string `json:"close"`
		Volume  string `json:"volume"`
		Confirm bool   `json:"confirm"`
	} `json:"data"`
}

// readLoop reads pushes, forwards confirmed bars, and reconnects with
// backoff on read failure.
func (s *WSStream) readLoop() {
	defer s.wg.Done()

	delay := s.config.ReconnectDelay
	for {
		select {
		case <-s.done:
			return
		default:
		}

		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				return
			case <-time.After(delay):
			}
			if delay < s.config.MaxReconnectDelay {
				delay *= 2
				if delay > s.config.MaxReconnectDelay {
					delay = s.config.MaxReconnectDelay
				}
			}
			if err := s.connect(context.Background()); err != nil {
				continue
			}
			observability.RecordStreamReconnect()
			delay = s.config.ReconnectDelay
			continue
		}

		bar, ok := s.parsePush(msg)
		if !ok {
			continue
		}
		// Drop stale or duplicate bars after a reconnect.
		if bar.OpenTime <= s.lastOpen {
			continue
		}
		s.lastOpen = bar.OpenTime

		select {
		case s.bars <- bar:
		case <-s.done:
			return
		}
	}
}

// parsePush extracts the first confirmed bar of a kline push.
func (s *WSStream) parsePush(msg []byte) (domain.Bar, bool) {
	var push klinePush
	if err := json.Unmarshal(msg, &push); err != nil {
		return domain.Bar{}, false
	}
	if push.Topic != s.topic {
		return domain.Bar{}, false
	}
	for _, k := range push.Data {
		if !k.Confirm {
			continue
		}
		open, err1 := strconv.ParseFloat(k.Open, 64)
		high, err2 := strconv.ParseFloat(k.High, 64)
		low, err3 := strconv.ParseFloat(k.Low, 64)
		cls, err4 := strconv.ParseFloat(k.Close, 64)
		vol, err5 := strconv.ParseFloat(k.Volume, 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			continue
		}
		return domain.Bar{
			OpenTime: k.Start,
			Open:     open,
			High:     high,
			Low:      low,
			Close:    cls,
			Volume:   vol,
		}, true
	}
	return domain.Bar{}, false
}

// pingLoop keeps the connection alive.
func (s *WSStream) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.connMu.Lock()
			conn := s.conn
			s.connMu.Unlock()
			if conn != nil {
				conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			}
		}
	}
}
