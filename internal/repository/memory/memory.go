// Package memory is an in-process storage backend used for local development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"book-network-backend/internal/domain"
	"book-network-backend/internal/repository"
)

// Store keeps every table in maps guarded by mu. Transactions are serialized by
// txMu, which gives the same guarantee as a row lock on every book.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	users     map[int32]domain.User
	tokens    map[int32]domain.Token
	books     map[int32]domain.Book
	loans     map[int32]domain.Loan
	feedbacks map[int32]domain.FeedBack
	seq       int32

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:     make(map[int32]domain.User),
		tokens:    make(map[int32]domain.Token),
		books:     make(map[int32]domain.Book),
		loans:     make(map[int32]domain.Loan),
		feedbacks: make(map[int32]domain.FeedBack),
		now:       time.Now,
	}
}

func (s *Store) Registry() repository.Registry {
	return repository.Registry{
		Users:    &userRepository{s: s},
		Tokens:   &tokenRepository{s: s},
		Books:    &bookRepository{s: s},
		Loans:    &loanRepository{s: s},
		Feedback: &feedbackRepository{s: s},
		Tx:       s,
	}
}

// unitOfWork hands out repositories that record an undo entry for every write.
type unitOfWork struct {
	s   *Store
	log *undoLog
}

func (u unitOfWork) Books() repository.BookRepository {
	return &bookRepository{s: u.s, log: u.log}
}

func (u unitOfWork) Loans() repository.LoanRepository {
	return &loanRepository{s: u.s, log: u.log}
}

func (u unitOfWork) Feedback() repository.FeedbackRepository {
	return &feedbackRepository{s: u.s, log: u.log}
}

// undoLog collects the inverse of each transactional write. Entries run with mu
// held. Only rows touched by the transaction are reverted and seq never rewinds.
type undoLog struct {
	entries []func()
}

func (l *undoLog) record(undo func()) {
	if l != nil {
		l.entries = append(l.entries, undo)
	}
}

// WithinTx runs fn while holding the transaction lock and reverts the rows fn
// wrote if it fails or panics.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, uow repository.UnitOfWork) error) (err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	log := &undoLog{}
	defer func() {
		if p := recover(); p != nil {
			s.rollback(log)
			panic(p)
		}
		if err != nil {
			s.rollback(log)
		}
	}()

	return fn(ctx, unitOfWork{s: s, log: log})
}

func (s *Store) rollback(log *undoLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(log.entries) - 1; i >= 0; i-- {
		log.entries[i]()
	}
}

func (s *Store) nextID() int32 {
	s.seq++
	return s.seq
}

// paginate sorts items with less and cuts out the requested page.
func paginate[T any](items []T, page domain.PageRequest, less func(a, b T) bool) ([]T, int64) {
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
	total := int64(len(items))
	start := page.Offset()
	if start >= total {
		return []T{}, total
	}
	end := start + int64(page.Size)
	if end > total {
		end = total
	}
	return items[start:end], total
}

func bookLess(s domain.Sort) func(a, b domain.Book) bool {
	asc := s.Direction == domain.SortAsc
	return func(a, b domain.Book) bool {
		var c int
		switch s.Field {
		case "title":
			c = strings.Compare(a.Title, b.Title)
		case "author_name":
			c = strings.Compare(a.AuthorName, b.AuthorName)
		default:
			c = a.CreatedOn.Compare(b.CreatedOn)
		}
		if c == 0 {
			c = int(a.ID - b.ID)
		}
		if asc {
			return c < 0
		}
		return c > 0
	}
}

func loanLess(s domain.Sort) func(a, b domain.Loan) bool {
	asc := s.Direction == domain.SortAsc
	return func(a, b domain.Loan) bool {
		c := a.CreatedOn.Compare(b.CreatedOn)
		if s.Field == "updated_on" {
			c = a.UpdatedOn.Compare(b.UpdatedOn)
		}
		if c == 0 {
			c = int(a.ID - b.ID)
		}
		if asc {
			return c < 0
		}
		return c > 0
	}
}
