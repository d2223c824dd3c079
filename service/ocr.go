package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/opsmind-ai/kb-gateway/types"
)

// OCRService extracts error log text from screenshots. The OCR backend is a
// black box: image bytes in, extracted text plus confidence out.
type OCRService interface {
	ExtractErrorLogs(ctx context.Context, image []byte) (*types.OCRResult, error)
}

// OCRClient talks to the OCR microservice over HTTP.
type OCRClient struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewOCRClient(endpoint string, logger *zap.Logger) *OCRClient {
	return &OCRClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

func (c *OCRClient) ExtractErrorLogs(ctx context.Context, image []byte) (*types.OCRResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "screenshot.png")
	if err != nil {
		return nil, fmt.Errorf("failed to build OCR request: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("failed to build OCR request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build OCR request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/extract-error-logs", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build OCR request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ocr service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("ocr service returned %d: %s", resp.StatusCode, string(detail))
	}

	var result types.OCRResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode OCR response: %w", err)
	}
	return &result, nil
}
