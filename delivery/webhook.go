package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	// The sink rejects payloads above 4096 bytes; chunks stay well
	// below that to leave headroom for JSON encoding overhead.
	DefaultMaxChunkSize = 1024

	// Pause between consecutive chunk sends so the sink receives
	// them in order even if it reorders rapid arrivals.
	DefaultPause = 300 * time.Millisecond
)

type sinkPayload struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type sinkResp struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// DeliveryError reports which chunk of a send sequence failed.
type DeliveryError struct {
	ChunkIndex int
	ChunkTotal int
	Err        error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed at chunk %d of %d: %v", e.ChunkIndex+1, e.ChunkTotal, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Sink posts markdown content to a webhook address, splitting
// oversized content into ordered chunks.
type Sink struct {
	url          string
	client       *http.Client
	maxChunkSize int
	pause        time.Duration
	logger       *zap.Logger
}

func NewSink(url string, client *http.Client, logger *zap.Logger) (*Sink, error) {
	if url == "" {
		return nil, errors.New("webhook url is required")
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{
		url:          url,
		client:       client,
		maxChunkSize: DefaultMaxChunkSize,
		pause:        DefaultPause,
		logger:       logger,
	}, nil
}

// Deliver sends content to the webhook as ordered chunks. Chunk i+1
// is not dispatched until chunk i succeeded; the first failure aborts
// the sequence and is returned as a *DeliveryError. Chunks already
// accepted by the sink are not retracted.
func (s *Sink) Deliver(ctx context.Context, content string) error {
	chunks := SplitChunks(content, s.maxChunkSize)
	for i, chunk := range chunks {
		if i > 0 {
			time.Sleep(s.pause)
		}
		if err := s.sendChunk(ctx, chunk); err != nil {
			s.logger.Warn("chunk send failed",
				zap.Int("chunk", i), zap.Int("total", len(chunks)), zap.Error(err))
			return &DeliveryError{ChunkIndex: i, ChunkTotal: len(chunks), Err: err}
		}
		s.logger.Debug("chunk sent", zap.Int("chunk", i), zap.Int("total", len(chunks)))
	}
	return nil
}

func (s *Sink) sendChunk(ctx context.Context, chunk string) error {
	body, err := json.Marshal(sinkPayload{Type: "markdown", Content: chunk})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %s", resp.Status)
	}

	var data sinkResp
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return err
	}
	if data.ErrCode != 0 {
		return fmt.Errorf("webhook error: %d %s", data.ErrCode, data.ErrMsg)
	}
	return nil
}
