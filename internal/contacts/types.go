package contacts

import "time"

// Contact is a stored contact. Phone and Email are nil when the column is NULL.
type Contact struct {
	ID        int64
	FullName  string
	Phone     *string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewContact is a submitted, not yet stored contact.
// A nil Phone or Email means the field was not submitted at all; a pointer to ""
// means it was submitted empty and is stored as an empty string.
type NewContact struct {
	FullName string
	Phone    *string
	Email    *string
}

// FieldErrors holds one message per invalid field; "" means the field is valid.
type FieldErrors struct {
	FullName string
	Phone    string
	Email    string
}

// Empty reports whether no field has an error.
func (e FieldErrors) Empty() bool {
	return e == FieldErrors{}
}

// SearchQuery is the optional free-text filter of the contact list.
// A nil Q lists everything.
type SearchQuery struct {
	Q *string
}
