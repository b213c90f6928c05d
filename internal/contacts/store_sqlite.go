package contacts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/memohai/contactbook/internal/db"
)

// SQLiteStore keeps contacts in a SQLite database opened with modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(conn *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: conn}
}

const sqliteColumns = `id, full_name, phone, email, created_at, updated_at`

// Search lowercases both sides with db.SQLiteLower, since SQLite LIKE folds
// ASCII case only.
const (
	sqliteCreate = `INSERT INTO contacts (full_name, phone, email) VALUES (?, ?, ?) RETURNING ` + sqliteColumns
	sqliteGet    = `SELECT ` + sqliteColumns + ` FROM contacts WHERE id = ?`
	sqliteList   = `SELECT ` + sqliteColumns + ` FROM contacts ORDER BY id`
	sqliteSearch = `SELECT ` + sqliteColumns + ` FROM contacts
WHERE ` + db.SQLiteLower + `(full_name) LIKE ` + db.SQLiteLower + `(?) ESCAPE '\'
   OR ` + db.SQLiteLower + `(phone) LIKE ` + db.SQLiteLower + `(?) ESCAPE '\'
   OR ` + db.SQLiteLower + `(email) LIKE ` + db.SQLiteLower + `(?) ESCAPE '\'
ORDER BY id`
)

func (s *SQLiteStore) Create(ctx context.Context, contact NewContact) (Contact, error) {
	row := s.db.QueryRowContext(ctx, sqliteCreate, contact.FullName, nullString(contact.Phone), nullString(contact.Email))
	item, err := scanSQLiteContact(row)
	if err != nil {
		return Contact{}, storeErr("create", err)
	}
	return item, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Contact, error) {
	items, err := s.query(ctx, sqliteList)
	if err != nil {
		return nil, storeErr("list", err)
	}
	return items, nil
}

func (s *SQLiteStore) GetByID(ctx context.Context, id int64) (Contact, bool, error) {
	item, err := scanSQLiteContact(s.db.QueryRowContext(ctx, sqliteGet, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Contact{}, false, nil
		}
		return Contact{}, false, storeErr("get", err)
	}
	return item, true, nil
}

func (s *SQLiteStore) Search(ctx context.Context, substring string) ([]Contact, error) {
	pattern := likePattern(substring)
	items, err := s.query(ctx, sqliteSearch, pattern, pattern, pattern)
	if err != nil {
		return nil, storeErr("search", err)
	}
	return items, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return storeErr("ping", s.db.PingContext(ctx))
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]Contact, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]Contact, 0)
	for rows.Next() {
		item, err := scanSQLiteContact(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteContact(row rowScanner) (Contact, error) {
	var (
		item      Contact
		phone     sql.NullString
		email     sql.NullString
		createdAt sqliteTime
		updatedAt sqliteTime
	)
	if err := row.Scan(&item.ID, &item.FullName, &phone, &email, &createdAt, &updatedAt); err != nil {
		return Contact{}, err
	}
	if phone.Valid {
		item.Phone = &phone.String
	}
	if email.Valid {
		item.Email = &email.String
	}
	item.CreatedAt = time.Time(createdAt)
	item.UpdatedAt = time.Time(updatedAt)
	return item, nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

// sqliteTime accepts the shapes a timestamp column can come back as.
type sqliteTime time.Time

var sqliteTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

func (t *sqliteTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = sqliteTime{}
		return nil
	case time.Time:
		*t = sqliteTime(v.UTC())
		return nil
	case int64:
		*t = sqliteTime(time.Unix(v, 0).UTC())
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (t *sqliteTime) parse(raw string) error {
	for _, layout := range sqliteTimeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			*t = sqliteTime(parsed.UTC())
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", raw)
}
