package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"sync/atomic"
	"time"

	"MacroPulse/internal/model"
)

// BridgeSource implements Source against the REST bridge that fronts the
// broker terminal. The bridge mirrors the terminal API one to one, so this
// client stays a thin JSON shim.
type BridgeSource struct {
	BaseURL string
	APIKey  string
	Client  *http.Client

	connected atomic.Bool
}

// NewBridgeSource creates a bridge client with optional proxy support.
func NewBridgeSource(baseURL, apiKey, proxyURL string) *BridgeSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	b := &BridgeSource{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			// The guard enforces the real ceiling; this is a hard backstop.
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
	b.connected.Store(true)
	return b
}

type bridgeBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

type bridgeTick struct {
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	Last      float64 `json:"last"`
	Volume    float64 `json:"volume"`
	Timestamp int64   `json:"timestamp"`
}

func (b *BridgeSource) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if b.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.APIKey)
	}
	resp, err := b.Client.Do(req)
	if err != nil {
		b.connected.Store(false)
		return fmt.Errorf("bridge fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrNoData
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("bridge: status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("bridge decode: %w", err)
	}
	return nil
}

func (b *BridgeSource) SelectInstrument(ctx context.Context, code string) (bool, error) {
	var result struct {
		Found bool `json:"found"`
	}
	endpoint := fmt.Sprintf("%s/api/v1/select?symbol=%s", b.BaseURL, url.QueryEscape(code))
	if err := b.getJSON(ctx, endpoint, &result); err != nil {
		return false, err
	}
	return result.Found, nil
}

func (b *BridgeSource) Tick(ctx context.Context, code string) (*model.Tick, error) {
	var bt bridgeTick
	endpoint := fmt.Sprintf("%s/api/v1/quote?symbol=%s", b.BaseURL, url.QueryEscape(code))
	if err := b.getJSON(ctx, endpoint, &bt); err != nil {
		return nil, err
	}
	if bt.Last == 0 && bt.Bid == 0 && bt.Ask == 0 {
		return nil, ErrNoData
	}
	return &model.Tick{
		Bid:    bt.Bid,
		Ask:    bt.Ask,
		Last:   bt.Last,
		Volume: bt.Volume,
		At:     time.Unix(bt.Timestamp, 0),
	}, nil
}

func (b *BridgeSource) DailyOpen(ctx context.Context, code string) (*model.Candle, error) {
	var bar bridgeBar
	endpoint := fmt.Sprintf("%s/api/v1/daily?symbol=%s", b.BaseURL, url.QueryEscape(code))
	if err := b.getJSON(ctx, endpoint, &bar); err != nil {
		return nil, err
	}
	if bar.Timestamp == 0 {
		return nil, ErrNoData
	}
	c := toCandle(bar, model.TimeframeD1)
	return &c, nil
}

func (b *BridgeSource) Candles(ctx context.Context, code string, tf model.Timeframe, count int) ([]model.Candle, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bars?symbol=%s&timeframe=%s&limit=%d",
		b.BaseURL, url.QueryEscape(code), tf, count)
	return b.fetchBars(ctx, endpoint, tf)
}

func (b *BridgeSource) CandlesRange(ctx context.Context, code string, tf model.Timeframe, start, end time.Time) ([]model.Candle, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bars/range?symbol=%s&timeframe=%s&start=%d&end=%d",
		b.BaseURL, url.QueryEscape(code), tf, start.Unix(), end.Unix())
	return b.fetchBars(ctx, endpoint, tf)
}

func (b *BridgeSource) fetchBars(ctx context.Context, endpoint string, tf model.Timeframe) ([]model.Candle, error) {
	var raw []bridgeBar
	if err := b.getJSON(ctx, endpoint, &raw); err != nil {
		return nil, err
	}
	bars := make([]model.Candle, len(raw))
	for i, bb := range raw {
		bars[i] = toCandle(bb, tf)
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func (b *BridgeSource) ListInstruments(ctx context.Context, prefix string) ([]string, error) {
	var codes []string
	endpoint := fmt.Sprintf("%s/api/v1/instruments?prefix=%s", b.BaseURL, url.QueryEscape(prefix))
	if err := b.getJSON(ctx, endpoint, &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

func (b *BridgeSource) Connected() bool { return b.connected.Load() }

func (b *BridgeSource) Reconnect(ctx context.Context) error {
	var result struct {
		OK bool `json:"ok"`
	}
	endpoint := b.BaseURL + "/api/v1/reconnect"
	if err := b.getJSON(ctx, endpoint, &result); err != nil {
		return fmt.Errorf("reconnect: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("reconnect: bridge refused")
	}
	b.connected.Store(true)
	return nil
}

func toCandle(bb bridgeBar, tf model.Timeframe) model.Candle {
	return model.Candle{
		Time:      time.Unix(bb.Timestamp, 0),
		Open:      bb.Open,
		High:      bb.High,
		Low:       bb.Low,
		Close:     bb.Close,
		Volume:    bb.Volume,
		Timeframe: tf,
	}
}
