package domain

import "time"

type Book struct {
	ID         int32     `json:"id" db:"id"`
	OwnerID    int32     `json:"owner_id" db:"owner_id"`
	Title      string    `json:"title" db:"title"`
	AuthorName string    `json:"author_name" db:"author_name"`
	ISBN       string    `json:"isbn" db:"isbn"`
	Synopsis   string    `json:"synopsis" db:"synopsis"`
	Cover      string    `json:"cover" db:"cover"` // storage key, empty when no cover was uploaded
	Archived   bool      `json:"archived" db:"archived"`
	Shareable  bool      `json:"shareable" db:"shareable"`
	CreatedOn  time.Time `json:"created_on" db:"created_on"`
	UpdatedOn  time.Time `json:"updated_on" db:"updated_on"`
}

// Borrowable reports whether other users may currently borrow the book.
func (b *Book) Borrowable() bool {
	return b.Shareable && !b.Archived
}

// BookView is a book together with the values derived at read time.
type BookView struct {
	Book
	OwnerName string  `json:"owner"`
	Rate      float64 `json:"rate"`
}
