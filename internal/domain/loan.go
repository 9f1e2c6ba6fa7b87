package domain

import "time"

// Loan is one borrow episode of a book (a transaction history entry).
type Loan struct {
	ID             int32     `json:"id" db:"id"`
	BookID         int32     `json:"book_id" db:"book_id"`
	UserID         int32     `json:"user_id" db:"user_id"` // borrower
	Returned       bool      `json:"returned" db:"returned"`
	ReturnApproved bool      `json:"return_approved" db:"return_approved"`
	CreatedOn      time.Time `json:"created_on" db:"created_on"`
	UpdatedOn      time.Time `json:"updated_on" db:"updated_on"`
}

// Open reports whether the borrower still holds the book.
func (l *Loan) Open() bool {
	return !l.Returned
}

// LoanView joins a loan with the borrowed book and its current rating.
type LoanView struct {
	Loan
	Book Book    `json:"book"`
	Rate float64 `json:"rate"`
}
