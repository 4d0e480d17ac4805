package feedback

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kdimtricp/hoverlabel/internal/models"
)

type mockSink struct {
	mu    sync.Mutex
	votes []models.Vote
}

func (m *mockSink) Send(key models.ImageKey, v models.Verdict, vote models.Vote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.votes = append(m.votes, vote)
}

func (m *mockSink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.votes)
}

var testVerdict = models.Verdict{Label: models.LabelAIGenerated, Confidence: 0.42}

func TestTracker_SubmitOnce(t *testing.T) {
	sink := &mockSink{}
	tracker := NewTracker(sink)

	if !tracker.Submit("https://x/a.jpg", testVerdict, models.VoteCorrect) {
		t.Fatal("first submit should be performed")
	}
	if tracker.Submit("https://x/a.jpg", testVerdict, models.VoteIncorrect) {
		t.Error("second submit should be a no-op")
	}
	if !tracker.Submit("https://x/b.jpg", testVerdict, models.VoteIncorrect) {
		t.Error("different image should be submitted")
	}

	if sink.count() != 2 {
		t.Errorf("expected 2 votes at the sink, got %d", sink.count())
	}
	if sink.votes[0] != models.VoteCorrect {
		t.Errorf("expected the first vote to win, got %s", sink.votes[0])
	}
}

func TestTracker_ConcurrentSubmit(t *testing.T) {
	sink := &mockSink{}
	tracker := NewTracker(sink)

	const callers = 50
	var wg sync.WaitGroup
	var performed atomic.Int32
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tracker.Submit("https://x/a.jpg", testVerdict, models.VoteCorrect) {
				performed.Add(1)
			}
		}()
	}
	wg.Wait()

	if performed.Load() != 1 {
		t.Errorf("expected exactly one performed submit, got %d", performed.Load())
	}
	if sink.count() != 1 {
		t.Errorf("expected exactly one vote at the sink, got %d", sink.count())
	}
}

func TestTracker_Reset(t *testing.T) {
	tracker := NewTracker(&mockSink{})
	tracker.Submit("https://x/a.jpg", testVerdict, models.VoteCorrect)
	tracker.Reset()

	if tracker.Submitted("https://x/a.jpg") {
		t.Error("expected ledger to be empty after reset")
	}
}

func TestHTTPSink_Send(t *testing.T) {
	var received feedbackRequest
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	sink := NewHTTPSink(server.URL)
	sink.Send("https://x/a.jpg", testVerdict, models.VoteIncorrect)
	sink.Wait()

	if calls.Load() != 1 {
		t.Fatalf("expected 1 request, got %d", calls.Load())
	}
	if received.ImageURL != "https://x/a.jpg" || received.Feedback != "incorrect" {
		t.Errorf("unexpected payload: %+v", received)
	}
	if received.Prediction != string(models.LabelAIGenerated) || received.Confidence != 0.42 {
		t.Errorf("unexpected verdict in payload: %+v", received)
	}
}
