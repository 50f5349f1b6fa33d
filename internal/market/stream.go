package market

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// CloseHandler receives the full candle series each time a candle closes.
type CloseHandler func(symbol, interval string, candles []Candle)

// klineEvent mirrors the exchange kline stream payload.
type klineEvent struct {
	EventType string `json:"e"`
	Symbol    string `json:"s"`
	Kline     struct {
		OpenTime  int64  `json:"t"`
		CloseTime int64  `json:"T"`
		Interval  string `json:"i"`
		Open      string `json:"o"`
		High      string `json:"h"`
		Low       string `json:"l"`
		Close     string `json:"c"`
		Volume    string `json:"v"`
		IsClosed  bool   `json:"x"`
	} `json:"k"`
}

// Stream consumes a live kline websocket feed for one symbol/interval pair.
// The most recent candle is mutated in place while its time bucket is still
// forming; once the exchange flags it closed it becomes immutable and the
// close handler fires with the updated series.
//
// Reconnection policy is the caller's concern: when the feed drops, Run
// returns and the caller decides whether to start a new Stream.
type Stream struct {
	wsBaseURL string
	symbol    string
	interval  string
	maxLen    int
	onClose   CloseHandler
	logger    zerolog.Logger

	mu      sync.RWMutex
	candles []Candle
}

// NewStream creates a kline stream. Seed may carry historical candles fetched
// over REST so indicators have warm-up history from the first close event.
func NewStream(wsBaseURL, symbol, interval string, seed []Candle, maxLen int, onClose CloseHandler, logger zerolog.Logger) *Stream {
	if wsBaseURL == "" {
		wsBaseURL = "wss://stream.binance.com:9443"
	}
	if maxLen <= 0 {
		maxLen = 1000
	}
	candles := make([]Candle, len(seed))
	copy(candles, seed)
	return &Stream{
		wsBaseURL: wsBaseURL,
		symbol:    symbol,
		interval:  interval,
		maxLen:    maxLen,
		onClose:   onClose,
		candles:   candles,
		logger:    logger.With().Str("symbol", symbol).Str("interval", interval).Logger(),
	}
}

// Candles returns a copy of the current series, including the forming candle.
func (s *Stream) Candles() []Candle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Candle, len(s.candles))
	copy(out, s.candles)
	return out
}

// Run connects to the kline stream and processes updates until the context is
// cancelled or the connection drops.
func (s *Stream) Run(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/ws/%s@kline_%s", s.wsBaseURL, strings.ToLower(s.symbol), s.interval)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to connect kline stream: %w", err)
	}
	defer conn.Close()

	s.logger.Info().Str("endpoint", endpoint).Msg("kline stream connected")

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("kline stream read: %w", err)
		}

		var ev klineEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			s.logger.Warn().Err(err).Msg("dropping unparseable stream message")
			continue
		}
		if ev.EventType != "kline" {
			continue
		}

		candle := Candle{
			OpenTime:  ev.Kline.OpenTime,
			CloseTime: ev.Kline.CloseTime,
			Open:      parseFloat(ev.Kline.Open),
			High:      parseFloat(ev.Kline.High),
			Low:       parseFloat(ev.Kline.Low),
			Close:     parseFloat(ev.Kline.Close),
			Volume:    parseFloat(ev.Kline.Volume),
			Closed:    ev.Kline.IsClosed,
		}
		if err := candle.Validate(); err != nil {
			s.logger.Warn().Err(err).Msg("rejecting malformed stream candle")
			continue
		}

		s.apply(candle)
	}
}

// apply merges a stream update into the series. Updates for the current time
// bucket replace the forming candle; a new bucket appends.
func (s *Stream) apply(candle Candle) {
	s.mu.Lock()
	n := len(s.candles)
	if n > 0 && s.candles[n-1].OpenTime == candle.OpenTime {
		s.candles[n-1] = candle
	} else if n == 0 || candle.OpenTime > s.candles[n-1].OpenTime {
		s.candles = append(s.candles, candle)
		if len(s.candles) > s.maxLen {
			s.candles = s.candles[len(s.candles)-s.maxLen:]
		}
	} else {
		// Out-of-order bucket, ignore.
		s.mu.Unlock()
		return
	}

	var snapshot []Candle
	if candle.Closed && s.onClose != nil {
		snapshot = make([]Candle, len(s.candles))
		copy(snapshot, s.candles)
	}
	s.mu.Unlock()

	if snapshot != nil {
		s.onClose(s.symbol, s.interval, snapshot)
	}
}
