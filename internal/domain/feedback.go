package domain

import "time"

const (
	MinFeedbackNote = 0.0
	MaxFeedbackNote = 5.0
)

type FeedBack struct {
	ID        int32     `json:"id" db:"id"`
	BookID    int32     `json:"book_id" db:"book_id"`
	UserID    int32     `json:"user_id" db:"user_id"`
	Note      float64   `json:"note" db:"note"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedOn time.Time `json:"created_on" db:"created_on"`
}

type FeedBackView struct {
	FeedBack
	OwnFeedback bool `json:"own_feedback"`
}
