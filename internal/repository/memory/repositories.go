package memory

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"book-network-backend/internal/domain"
	"book-network-backend/internal/repository"
)

type userRepository struct{ s *Store }

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return fmt.Errorf("%w: ux_users_email", repository.ErrDuplicate)
		}
	}
	now := r.s.now()
	u.ID = r.s.nextID()
	u.CreatedOn, u.UpdatedOn = now, now
	r.s.users[u.ID] = *u
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.NotFound("no user found with the ID: %d", id)
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, domain.NotFound("no user found with the email: %s", email)
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return domain.NotFound("no user found with the ID: %d", u.ID)
	}
	u.UpdatedOn = r.s.now()
	r.s.users[u.ID] = *u
	return nil
}

type tokenRepository struct{ s *Store }

func (r *tokenRepository) Create(ctx context.Context, t *domain.Token) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t.ID = r.s.nextID()
	r.s.tokens[t.ID] = *t
	return nil
}

func (r *tokenRepository) GetByToken(ctx context.Context, token string) (*domain.Token, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var found *domain.Token
	for _, t := range r.s.tokens {
		if t.Token != token {
			continue
		}
		if found == nil || t.CreatedAt.After(found.CreatedAt) {
			t := t
			found = &t
		}
	}
	if found == nil {
		return nil, domain.NotFound("invalid activation token")
	}
	return found, nil
}

func (r *tokenRepository) Update(ctx context.Context, t *domain.Token) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tokens[t.ID]; !ok {
		return domain.NotFound("invalid activation token")
	}
	r.s.tokens[t.ID] = *t
	return nil
}

func (r *tokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, t := range r.s.tokens {
		if t.ValidatedAt == nil && t.ExpiresAt.Before(before) {
			delete(r.s.tokens, id)
			n++
		}
	}
	return n, nil
}

type bookRepository struct {
	s   *Store
	log *undoLog
}

func (r *bookRepository) Create(ctx context.Context, b *domain.Book) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	b.ID = r.s.nextID()
	b.CreatedOn, b.UpdatedOn = now, now
	r.s.books[b.ID] = *b
	id := b.ID
	r.log.record(func() { delete(r.s.books, id) })
	return nil
}

func (r *bookRepository) GetByID(ctx context.Context, id int32) (*domain.Book, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.books[id]
	if !ok {
		return nil, domain.NotFound("no book found with the ID: %d", id)
	}
	return &b, nil
}

// GetByIDForUpdate relies on the caller holding the transaction lock.
func (r *bookRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Book, error) {
	return r.GetByID(ctx, id)
}

func (r *bookRepository) Update(ctx context.Context, b *domain.Book) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, ok := r.s.books[b.ID]
	if !ok {
		return domain.NotFound("no book found with the ID: %d", b.ID)
	}
	b.UpdatedOn = r.s.now()
	r.s.books[b.ID] = *b
	r.log.record(func() { r.s.books[prev.ID] = prev })
	return nil
}

func (r *bookRepository) ListDisplayable(ctx context.Context, excludeOwnerID int32, page domain.PageRequest) ([]domain.Book, int64, error) {
	return r.list(page, func(b domain.Book) bool {
		return b.Borrowable() && b.OwnerID != excludeOwnerID
	})
}

func (r *bookRepository) ListByOwner(ctx context.Context, ownerID int32, page domain.PageRequest) ([]domain.Book, int64, error) {
	return r.list(page, func(b domain.Book) bool { return b.OwnerID == ownerID })
}

func (r *bookRepository) list(page domain.PageRequest, keep func(domain.Book) bool) ([]domain.Book, int64, error) {
	r.s.mu.RLock()
	var books []domain.Book
	for _, b := range r.s.books {
		if keep(b) {
			books = append(books, b)
		}
	}
	r.s.mu.RUnlock()
	out, total := paginate(books, page, bookLess(page.Sort))
	return out, total, nil
}

type loanRepository struct {
	s   *Store
	log *undoLog
}

func (r *loanRepository) Create(ctx context.Context, l *domain.Loan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !l.Returned {
		for _, existing := range r.s.loans {
			if existing.BookID == l.BookID && existing.UserID == l.UserID && existing.Open() {
				return fmt.Errorf("%w: ux_loans_open", repository.ErrDuplicate)
			}
		}
	}
	now := r.s.now()
	l.ID = r.s.nextID()
	l.CreatedOn, l.UpdatedOn = now, now
	r.s.loans[l.ID] = *l
	id := l.ID
	r.log.record(func() { delete(r.s.loans, id) })
	return nil
}

func (r *loanRepository) Update(ctx context.Context, l *domain.Loan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, ok := r.s.loans[l.ID]
	if !ok {
		return domain.NotFound("no loan found with the ID: %d", l.ID)
	}
	l.UpdatedOn = r.s.now()
	r.s.loans[l.ID] = *l
	r.log.record(func() { r.s.loans[prev.ID] = prev })
	return nil
}

func (r *loanRepository) ExistsOpenLoan(ctx context.Context, bookID, borrowerID int32) (bool, error) {
	_, err := r.FindOpenByBookAndBorrower(ctx, bookID, borrowerID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *loanRepository) FindOpenByBookAndBorrower(ctx context.Context, bookID, borrowerID int32) (*domain.Loan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, l := range r.s.loans {
		if l.BookID == bookID && l.UserID == borrowerID && l.Open() {
			return &l, nil
		}
	}
	return nil, domain.NotFound("no open loan for book %d and user %d", bookID, borrowerID)
}

func (r *loanRepository) FindReturnedUnapprovedByBookAndOwner(ctx context.Context, bookID, ownerID int32) (*domain.Loan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.books[bookID]
	if !ok || b.OwnerID != ownerID {
		return nil, domain.NotFound("no returned loan awaiting approval for book %d", bookID)
	}
	var found *domain.Loan
	for _, l := range r.s.loans {
		if l.BookID != bookID || !l.Returned || l.ReturnApproved {
			continue
		}
		if found == nil || l.UpdatedOn.Before(found.UpdatedOn) || (l.UpdatedOn.Equal(found.UpdatedOn) && l.ID < found.ID) {
			l := l
			found = &l
		}
	}
	if found == nil {
		return nil, domain.NotFound("no returned loan awaiting approval for book %d", bookID)
	}
	return found, nil
}

func (r *loanRepository) ListBorrowedByUser(ctx context.Context, borrowerID int32, page domain.PageRequest) ([]domain.Loan, int64, error) {
	r.s.mu.RLock()
	var loans []domain.Loan
	for _, l := range r.s.loans {
		if l.UserID == borrowerID {
			loans = append(loans, l)
		}
	}
	r.s.mu.RUnlock()
	out, total := paginate(loans, page, loanLess(page.Sort))
	return out, total, nil
}

func (r *loanRepository) ListOnOwnedBooks(ctx context.Context, ownerID int32, page domain.PageRequest) ([]domain.Loan, int64, error) {
	r.s.mu.RLock()
	var loans []domain.Loan
	for _, l := range r.s.loans {
		if b, ok := r.s.books[l.BookID]; ok && b.OwnerID == ownerID {
			loans = append(loans, l)
		}
	}
	r.s.mu.RUnlock()
	out, total := paginate(loans, page, loanLess(page.Sort))
	return out, total, nil
}

type feedbackRepository struct {
	s   *Store
	log *undoLog
}

func (r *feedbackRepository) Create(ctx context.Context, fb *domain.FeedBack) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	fb.ID = r.s.nextID()
	fb.CreatedOn = r.s.now()
	r.s.feedbacks[fb.ID] = *fb
	id := fb.ID
	r.log.record(func() { delete(r.s.feedbacks, id) })
	return nil
}

func (r *feedbackRepository) ListNotesByBook(ctx context.Context, bookID int32) ([]float64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var notes []float64
	for _, fb := range r.s.feedbacks {
		if fb.BookID == bookID {
			notes = append(notes, fb.Note)
		}
	}
	return notes, nil
}

func (r *feedbackRepository) ListByBook(ctx context.Context, bookID int32, page domain.PageRequest) ([]domain.FeedBack, int64, error) {
	r.s.mu.RLock()
	var feedbacks []domain.FeedBack
	for _, fb := range r.s.feedbacks {
		if fb.BookID == bookID {
			feedbacks = append(feedbacks, fb)
		}
	}
	r.s.mu.RUnlock()
	out, total := paginate(feedbacks, page, func(a, b domain.FeedBack) bool {
		c := a.CreatedOn.Compare(b.CreatedOn)
		if page.Sort.Field == "note" {
			c = cmp.Compare(a.Note, b.Note)
		}
		if c == 0 {
			c = int(a.ID - b.ID)
		}
		if page.Sort.Direction == domain.SortAsc {
			return c < 0
		}
		return c > 0
	})
	return out, total, nil
}
