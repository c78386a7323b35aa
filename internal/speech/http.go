package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/ratelimit"
)

// HTTPSink posts sentences to a text-to-speech endpoint. Outbound calls are
// bounded by a bulkhead and a rate limiter so a slow or chatty TTS backend
// can never stall the engine; there is deliberately no retry, because a
// dropped utterance is acceptable and a late one is not.
type HTTPSink struct {
	endpoint string
	lang     string
	client   *http.Client
	bulkhead bulkhead.Bulkhead[struct{}]
	limiter  ratelimit.RateLimiter
	logger   *slog.Logger
}

// Config holds HTTPSink settings.
type Config struct {
	Endpoint      string
	Language      string // BCP-47 code sent with every request
	MaxConcurrent int
	RatePerSecond int
	Timeout       time.Duration
	Logger        *slog.Logger
}

// NewHTTPSink creates a sink for the given TTS endpoint.
func NewHTTPSink(cfg Config) *HTTPSink {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 2
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Language == "" {
		cfg.Language = "de"
	}
	return &HTTPSink{
		endpoint: cfg.Endpoint,
		lang:     cfg.Language,
		client:   &http.Client{Timeout: cfg.Timeout},
		bulkhead: bulkhead.New[struct{}](bulkhead.Config{
			MaxConcurrent: cfg.MaxConcurrent,
			MaxQueue:      cfg.MaxConcurrent * 2,
			QueueTimeout:  cfg.Timeout,
		}),
		limiter: ratelimit.New(&ratelimit.Config{
			Rate:     cfg.RatePerSecond,
			Burst:    cfg.RatePerSecond * 2,
			Interval: time.Second,
		}),
		logger: cfg.Logger,
	}
}

// Speak pronounces text. Errors degrade to a log line.
func (s *HTTPSink) Speak(ctx context.Context, text string) {
	if text == "" {
		return
	}
	if !s.limiter.Allow(ctx, "speech") {
		s.logger.Debug("speech rate limited", "text_len", len(text))
		return
	}
	_, err := s.bulkhead.Execute(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.post(ctx, text)
	})
	if err != nil {
		s.logger.Warn("speak failed", "error", err)
	}
}

func (s *HTTPSink) post(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{
		"text": text,
		"lang": s.lang,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		s.logger.Debug("tts endpoint status", "status", resp.StatusCode)
	}
	return nil
}
