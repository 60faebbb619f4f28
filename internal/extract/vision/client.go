package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/virajbhatt/cardintel/internal/extract"
)

// Client calls a Vision-style images:annotate endpoint and implements
// extract.TextExtractor. Retry policy lives in the caller; this adapter only
// maps the wire exchange and the failure taxonomy.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

type annotateImage struct {
	Content string `json:"content"`
}

type annotateFeature struct {
	Type string `json:"type"`
}

type annotateEntry struct {
	Image    annotateImage     `json:"image"`
	Features []annotateFeature `json:"features"`
}

type annotateRequest struct {
	Requests []annotateEntry `json:"requests"`
}

type annotateResponse struct {
	Responses []struct {
		FullTextAnnotation *struct {
			Text string `json:"text"`
		} `json:"fullTextAnnotation"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

// ExtractText reads the image from disk, submits it for document text
// detection, and returns the detected plain text.
func (c *Client) ExtractText(ctx context.Context, imagePath string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	raw, err := os.ReadFile(imagePath)
	if err != nil {
		return "", extract.NewExtractionError(extract.ReasonNotFound, "read image: "+imagePath, err)
	}

	c.log.Info("vision.extract.start", "req_id", rid, "path", imagePath, "bytes", len(raw))

	body := annotateRequest{Requests: []annotateEntry{{
		Image:    annotateImage{Content: base64.StdEncoding.EncodeToString(raw)},
		Features: []annotateFeature{{Type: "DOCUMENT_TEXT_DETECTION"}},
	}}}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/images:annotate?key=" + c.cfg.APIKey
	respBody, status, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.log.Error("vision.extract.http_error",
			"req_id", rid, "status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", mapHTTPError(status, err)
	}

	var ar annotateResponse
	if err := json.Unmarshal(respBody, &ar); err != nil {
		return "", extract.NewExtractionError(extract.ReasonUnavailable, "decode annotate response", err)
	}
	if len(ar.Responses) == 0 {
		return "", extract.NewExtractionError(extract.ReasonUnavailable, "empty annotate response", nil)
	}
	r0 := ar.Responses[0]
	if r0.Error != nil {
		return "", mapAPIError(r0.Error.Code, r0.Error.Message)
	}
	if r0.FullTextAnnotation == nil || strings.TrimSpace(r0.FullTextAnnotation.Text) == "" {
		c.log.Warn("vision.extract.no_text", "req_id", rid, "path", imagePath)
		return "", extract.NewExtractionError(extract.ReasonNoText, "no text detected in image", nil)
	}

	text := strings.TrimSpace(r0.FullTextAnnotation.Text)
	c.log.Info("vision.extract.ok",
		"req_id", rid,
		"text_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

func (c *Client) post(ctx context.Context, url string, body any) ([]byte, int, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("vision http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.log.Warn("vision response body close error", "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, fmt.Errorf("vision status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, resp.StatusCode, nil
}

func mapHTTPError(status int, err error) error {
	switch status {
	case http.StatusUnauthorized:
		return extract.NewExtractionError(extract.ReasonAuth, "vision credentials rejected", err)
	case http.StatusForbidden:
		return extract.NewExtractionError(extract.ReasonPermission, "vision access denied", err)
	case http.StatusTooManyRequests:
		return extract.NewExtractionError(extract.ReasonQuota, "vision quota exhausted", err)
	default:
		return extract.NewExtractionError(extract.ReasonUnavailable, "vision request failed", err)
	}
}

// mapAPIError translates the status codes the annotate API reports inside a
// 200 response body.
func mapAPIError(code int, message string) error {
	switch code {
	case 7: // PERMISSION_DENIED
		return extract.NewExtractionError(extract.ReasonPermission, message, nil)
	case 8: // RESOURCE_EXHAUSTED
		return extract.NewExtractionError(extract.ReasonQuota, message, nil)
	case 16: // UNAUTHENTICATED
		return extract.NewExtractionError(extract.ReasonAuth, message, nil)
	default:
		return extract.NewExtractionError(extract.ReasonUnavailable, message, nil)
	}
}
