// Package encoder fetches an image and turns it into the base64 data URL
// the classifier expects.
package encoder

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/kdimtricp/hoverlabel/internal/logging"
	"github.com/kdimtricp/hoverlabel/internal/models"
)

const (
	DefaultFetchTimeout = 15 * time.Second
	DefaultMaxBytes     = 10 << 20
	DefaultMaxDimension = 512
	DefaultJPEGQuality  = 85
)

type Config struct {
	FetchTimeout time.Duration
	MaxBytes     int64
	// MaxDimension bounds the longer side sent to the classifier. Zero or
	// negative disables resizing.
	MaxDimension int
	JPEGQuality  int
}

type Encoder struct {
	httpClient   *http.Client
	maxBytes     int64
	maxDimension int
	quality      int
}

func New(config Config) *Encoder {
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = DefaultFetchTimeout
	}
	if config.MaxBytes <= 0 {
		config.MaxBytes = DefaultMaxBytes
	}
	if config.JPEGQuality <= 0 || config.JPEGQuality > 100 {
		config.JPEGQuality = DefaultJPEGQuality
	}

	return &Encoder{
		httpClient:   &http.Client{Timeout: config.FetchTimeout},
		maxBytes:     config.MaxBytes,
		maxDimension: config.MaxDimension,
		quality:      config.JPEGQuality,
	}
}

// Encode returns the image as a data URL together with its original pixel
// dimensions. Every failure wraps models.ErrFetch.
func (e *Encoder) Encode(ctx context.Context, imageURL string) (*models.Payload, error) {
	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(imageURL, "data:") {
		data, err = decodeDataURL(imageURL)
	} else {
		data, err = e.fetch(ctx, imageURL)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrFetch, err)
	}
	if int64(len(data)) > e.maxBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", models.ErrFetch, e.maxBytes)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image: %v", models.ErrFetch, err)
	}

	contentType := "image/" + format
	if e.needsResize(cfg.Width, cfg.Height) {
		resized, err := e.resize(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrFetch, err)
		}
		logging.Debug("image downsized", "url", truncate(imageURL), "width", cfg.Width, "height", cfg.Height,
			"bytes", len(data), "resized_bytes", len(resized))
		data = resized
		contentType = "image/jpeg"
	}

	return &models.Payload{
		Data:        fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data)),
		Width:       cfg.Width,
		Height:      cfg.Height,
		ContentType: contentType,
	}, nil
}

func (e *Encoder) fetch(ctx context.Context, imageURL string) ([]byte, error) {
	u, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid image url: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image server returned status %d", resp.StatusCode)
	}

	// One byte past the limit is enough to tell the image is too large.
	data, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %v", err)
	}
	return data, nil
}

func (e *Encoder) needsResize(width, height int) bool {
	return e.maxDimension > 0 && (width > e.maxDimension || height > e.maxDimension)
}

func (e *Encoder) resize(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %v", err)
	}

	w, h := fit(src.Bounds().Dx(), src.Bounds().Dy(), e.maxDimension)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: e.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %v", err)
	}
	return buf.Bytes(), nil
}

// fit scales width and height so the longer side equals limit.
func fit(width, height, limit int) (int, int) {
	if width >= height {
		h := height * limit / width
		if h < 1 {
			h = 1
		}
		return limit, h
	}
	w := width * limit / height
	if w < 1 {
		w = 1
	}
	return w, limit
}

func decodeDataURL(raw string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("malformed data url")
	}

	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 payload: %v", err)
		}
		return data, nil
	}

	text, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid data url payload: %v", err)
	}
	return []byte(text), nil
}

func truncate(s string) string {
	if len(s) > 80 {
		return s[:80] + "..."
	}
	return s
}
