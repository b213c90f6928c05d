package contacts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/memohai/contactbook/internal/db"
	"github.com/memohai/contactbook/internal/db/sqlc"
)

// PostgresStore keeps contacts in PostgreSQL through the sqlc queries.
type PostgresStore struct {
	pool    *pgxpool.Pool
	queries *sqlc.Queries
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, queries: sqlc.New(pool)}
}

func (s *PostgresStore) Create(ctx context.Context, contact NewContact) (Contact, error) {
	row, err := s.queries.CreateContact(ctx, sqlc.CreateContactParams{
		FullName: contact.FullName,
		Phone:    db.TextFromPtr(contact.Phone),
		Email:    db.TextFromPtr(contact.Email),
	})
	if err != nil {
		return Contact{}, storeErr("create", err)
	}
	return contactFromPg(row), nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Contact, error) {
	rows, err := s.queries.ListContacts(ctx)
	if err != nil {
		return nil, storeErr("list", err)
	}
	return contactsFromPg(rows), nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id int64) (Contact, bool, error) {
	row, err := s.queries.GetContactByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contact{}, false, nil
		}
		return Contact{}, false, storeErr("get", err)
	}
	return contactFromPg(row), true, nil
}

func (s *PostgresStore) Search(ctx context.Context, substring string) ([]Contact, error) {
	rows, err := s.queries.SearchContacts(ctx, likePattern(substring))
	if err != nil {
		return nil, storeErr("search", err)
	}
	return contactsFromPg(rows), nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return storeErr("ping", s.pool.Ping(ctx))
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func contactFromPg(row sqlc.Contact) Contact {
	return Contact{
		ID:        row.ID,
		FullName:  row.FullName,
		Phone:     db.TextToPtr(row.Phone),
		Email:     db.TextToPtr(row.Email),
		CreatedAt: db.TimeFromPg(row.CreatedAt),
		UpdatedAt: db.TimeFromPg(row.UpdatedAt),
	}
}

func contactsFromPg(rows []sqlc.Contact) []Contact {
	items := make([]Contact, 0, len(rows))
	for _, row := range rows {
		items = append(items, contactFromPg(row))
	}
	return items
}
