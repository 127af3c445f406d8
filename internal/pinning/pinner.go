package pinning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/certchain/credential-service/internal/config"
)

// ErrNotConfigured means no pinning credentials were provided.
var ErrNotConfigured = errors.New("pinning service not configured")

// Pinner uploads credential assets to content-addressed storage and
// returns the resulting content hash.
type Pinner interface {
	PinFile(ctx context.Context, filename string, content io.Reader) (string, error)
}

type pinataClient struct {
	cfg    config.PinningConfig
	http   *http.Client
	logger *slog.Logger
}

// NewPinataClient creates a Pinner backed by the Pinata pinning API.
func NewPinataClient(cfg config.PinningConfig, logger *slog.Logger) Pinner {
	return &pinataClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type pinMetadata struct {
	Name string `json:"name"`
}

type pinOptions struct {
	CIDVersion int `json:"cidVersion"`
}

type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

func (p *pinataClient) PinFile(ctx context.Context, filename string, content io.Reader) (string, error) {
	if p.cfg.JWT == "" {
		return "", ErrNotConfigured
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("failed to read asset content: %w", err)
	}

	metadata, _ := json.Marshal(pinMetadata{
		Name: fmt.Sprintf("Certificate-%d", time.Now().UnixMilli()),
	})
	if err := writer.WriteField("pinataMetadata", string(metadata)); err != nil {
		return "", fmt.Errorf("failed to write pin metadata: %w", err)
	}

	options, _ := json.Marshal(pinOptions{CIDVersion: 0})
	if err := writer.WriteField("pinataOptions", string(options)); err != nil {
		return "", fmt.Errorf("failed to write pin options: %w", err)
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("failed to build pin request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+p.cfg.JWT)

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("pin request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("pin request returned %d: %s", resp.StatusCode, string(payload))
	}

	var result pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode pin response: %w", err)
	}
	if result.IpfsHash == "" {
		return "", fmt.Errorf("pin response missing content hash")
	}

	p.logger.Info("Asset pinned", "filename", filename, "hash", result.IpfsHash)

	return result.IpfsHash, nil
}
