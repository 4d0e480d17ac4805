package models

import (
	"time"

	"github.com/google/uuid"
)

type Vote string

const (
	VoteCorrect   Vote = "correct"
	VoteIncorrect Vote = "incorrect"
)

func ParseVote(s string) (Vote, bool) {
	switch Vote(s) {
	case VoteCorrect, VoteIncorrect:
		return Vote(s), true
	}
	return "", false
}

type FeedbackRecord struct {
	ID         string
	ImageURL   string
	Label      Label
	Confidence float64
	Vote       Vote
	CreatedAt  time.Time
}

func NewFeedbackRecord(key ImageKey, v Verdict, vote Vote) *FeedbackRecord {
	return &FeedbackRecord{
		ID:         uuid.New().String(),
		ImageURL:   string(key),
		Label:      v.Label,
		Confidence: v.Confidence,
		Vote:       vote,
		CreatedAt:  time.Now(),
	}
}
