package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/kdimtricp/hoverlabel/internal/logging"
	"github.com/kdimtricp/hoverlabel/internal/models"
)

const httpSinkTimeout = 5 * time.Second

// HTTPSink posts votes to a remote collector (typically the model server's
// feedback endpoint). Each Send runs in its own goroutine.
type HTTPSink struct {
	url        string
	httpClient *http.Client
	wg         sync.WaitGroup
}

func NewHTTPSink(url string) *HTTPSink {
	return &HTTPSink{
		url: url,
		httpClient: &http.Client{
			Timeout: httpSinkTimeout,
		},
	}
}

type feedbackRequest struct {
	ImageURL   string  `json:"image_url"`
	Prediction string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
	Feedback   string  `json:"feedback"`
}

func (s *HTTPSink) Send(key models.ImageKey, v models.Verdict, vote models.Vote) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.post(context.Background(), key, v, vote); err != nil {
			logging.Error("failed to send feedback", "image", key, "vote", vote, "error", err)
			return
		}
		logging.Debug("feedback sent", "image", key, "vote", vote)
	}()
}

// Wait blocks until every Send started so far has finished.
func (s *HTTPSink) Wait() {
	s.wg.Wait()
}

func (s *HTTPSink) post(ctx context.Context, key models.ImageKey, v models.Verdict, vote models.Vote) error {
	reqBody := feedbackRequest{
		ImageURL:   string(key),
		Prediction: string(v.Label),
		Confidence: v.Confidence,
		Feedback:   string(vote),
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal feedback: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("feedback endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
