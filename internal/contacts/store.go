package contacts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/memohai/contactbook/internal/db"
)

// Store persists contacts. Implementations do no validation.
type Store interface {
	// Create inserts the submission and returns the stored row with its
	// assigned id and timestamps.
	Create(ctx context.Context, contact NewContact) (Contact, error)
	// List returns every contact ordered by id.
	List(ctx context.Context) ([]Contact, error)
	// GetByID returns false, nil when no contact has the id.
	GetByID(ctx context.Context, id int64) (Contact, bool, error)
	// Search returns contacts whose full name, phone or email contains the
	// substring after Unicode lowercasing of both sides. Wildcards in
	// substring match literally.
	Search(ctx context.Context, substring string) ([]Contact, error)
	Ping(ctx context.Context) error
	Close() error
}

// ErrorKind says whether a store failure may go away on retry.
type ErrorKind int

const (
	Fatal ErrorKind = iota
	Transient
	// Canceled means the caller gave up, usually a client disconnect.
	Canceled
)

func (k ErrorKind) String() string {
	switch k {
	case Transient:
		return "transient"
	case Canceled:
		return "canceled"
	default:
		return "fatal"
	}
}

// StoreError wraps every failure returned by a Store.
type StoreError struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("contacts store %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Temporary reports whether retrying the operation may succeed.
func (e *StoreError) Temporary() bool {
	return e.Kind == Transient
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	kind := Fatal
	switch {
	case errors.Is(err, context.Canceled):
		kind = Canceled
	case db.IsTransient(err):
		kind = Transient
	}
	return &StoreError{Op: op, Kind: kind, Err: err}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a "contains" LIKE pattern for use with ESCAPE '\'.
func likePattern(substring string) string {
	return "%" + likeEscaper.Replace(substring) + "%"
}
