// Package contacts validates, stores and searches contacts.
package contacts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/memohai/contactbook/internal/logger"
)

// Service is the only write path into the store: every contact it creates has
// passed Validate.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(log *slog.Logger, store Store) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:  store,
		logger: log.With(slog.String("service", "contacts")),
	}
}

// List returns all contacts when q.Q is nil and the search result otherwise.
// An empty query string is still a search, and matches every contact.
func (s *Service) List(ctx context.Context, q SearchQuery) ([]Contact, error) {
	if s.store == nil {
		return nil, fmt.Errorf("contacts store not configured")
	}
	if q.Q != nil {
		return s.store.Search(ctx, *q.Q)
	}
	return s.store.List(ctx)
}

// GetByID returns false, nil when the contact does not exist.
func (s *Service) GetByID(ctx context.Context, id int64) (Contact, bool, error) {
	if s.store == nil {
		return Contact{}, false, fmt.Errorf("contacts store not configured")
	}
	return s.store.GetByID(ctx, id)
}

// Create validates the submission and stores it when valid.
// Invalid submissions come back as non-empty FieldErrors with a nil error and
// never reach the store; the error result is reserved for store failures.
func (s *Service) Create(ctx context.Context, submission NewContact) (Contact, FieldErrors, error) {
	if s.store == nil {
		return Contact{}, FieldErrors{}, fmt.Errorf("contacts store not configured")
	}
	if errs := submission.Validate(); !errs.Empty() {
		logger.FromContext(ctx).Debug("contact rejected",
			slog.Bool("full_name", errs.FullName != ""),
			slog.Bool("phone", errs.Phone != ""),
			slog.Bool("email", errs.Email != ""),
		)
		return Contact{}, errs, nil
	}
	created, err := s.store.Create(ctx, submission)
	if err != nil {
		return Contact{}, FieldErrors{}, err
	}
	s.logger.Info("contact created", slog.Int64("contact_id", created.ID))
	return created, FieldErrors{}, nil
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	if s.store == nil {
		return fmt.Errorf("contacts store not configured")
	}
	return s.store.Ping(ctx)
}
