package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	migrations "github.com/memohai/contactbook/db"
	"github.com/memohai/contactbook/internal/config"
	"github.com/memohai/contactbook/internal/contacts"
	"github.com/memohai/contactbook/internal/db"
	"github.com/memohai/contactbook/internal/views"
	"github.com/memohai/contactbook/templates"
)

type testApp struct {
	echo  *echo.Echo
	store contacts.Store
	logs  *bytes.Buffer
}

func newTestApp(t *testing.T, store contacts.Store, renderer echo.Renderer, transientUnavailable bool) *testApp {
	t.Helper()

	logs := &bytes.Buffer{}
	log := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	if renderer == nil {
		registry, err := views.New(views.Options{Fallback: templates.FS, Logger: log})
		require.NoError(t, err)
		renderer = registry
	}
	service := contacts.NewService(log, store)

	e := echo.New()
	e.Renderer = renderer
	e.HTTPErrorHandler = NewErrorHandler(log, transientUnavailable).Handle
	NewContactsHandler(log, service).Register(e)
	NewPingHandler(log, service).Register(e)
	return &testApp{echo: e, store: store, logs: logs}
}

func newSQLiteApp(t *testing.T) *testApp {
	t.Helper()

	url := "sqlite://" + filepath.Join(t.TempDir(), "contacts.db")
	source, err := migrations.Migrations(string(db.DriverSQLite))
	require.NoError(t, err)
	require.NoError(t, db.RunMigrate(nil, url, source, "up", nil))
	conn, err := db.OpenSQLite(context.Background(), url, 0)
	require.NoError(t, err)
	store := contacts.NewSQLiteStore(conn)
	t.Cleanup(func() { _ = store.Close() })
	return newTestApp(t, store, nil, false)
}

func (a *testApp) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) listAll(t *testing.T) []contacts.Contact {
	t.Helper()
	items, err := a.store.List(context.Background())
	require.NoError(t, err)
	return items
}

func TestIndexRedirects(t *testing.T) {
	t.Parallel()
	app := newSQLiteApp(t)

	rec := app.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/contacts", rec.Header().Get(echo.HeaderLocation))
}

func TestListEmpty(t *testing.T) {
	t.Parallel()
	app := newSQLiteApp(t)

	rec := app.do(http.MethodGet, "/contacts", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
	assert.Contains(t, rec.Body.String(), "No contacts yet.")
}

func TestNewContactForm(t *testing.T) {
	t.Parallel()
	app := newSQLiteApp(t)

	rec := app.do(http.MethodGet, "/contacts/new", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `name="full_name"`)
	assert.NotContains(t, body, `class="error"`)
}

func TestCreateAllEmptyShowsNameError(t *testing.T) {
	t.Parallel()
	app := newSQLiteApp(t)

	rec := app.do(http.MethodPost, "/contacts/new", url.Values{"full_name": {""}, "phone": {""}, "email": {""}})
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Full Name is required")
	assert.NotContains(t, body, "Invalid phone number")
	assert.NotContains(t, body, "Invalid email address")
	assert.Empty(t, app.listAll(t))
}

func TestCreateValidRedirectsAndLists(t *testing.T) {
	t.Parallel()
	app := newSQLiteApp(t)

	rec := app.do(http.MethodPost, "/contacts/new", url.Values{
		"full_name": {"Ada Lovelace"},
		"phone":     {"+44 20 7946"},
		"email":     {"ada@example.com"},
	})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/contacts", rec.Header().Get(echo.HeaderLocation))

	items := app.listAll(t)
	require.Len(t, items, 1)
	assert.Equal(t, "Ada Lovelace", items[0].FullName)
	require.NotNil(t, items[0].Phone)
	assert.Equal(t, "+44 20 7946", *items[0].Phone)

	rec = app.do(http.MethodGet, "/contacts", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ada Lovelace")
	assert.Contains(t, rec.Body.String(), "ada@example.com")
}

func TestCreateInvalidPhoneOnly(t *testing.T) {
	t.Parallel()
	app := newSQLiteApp(t)

	rec := app.do(http.MethodPost, "/contacts/new", url.Values{
		"full_name": {"Bob"},
		"phone":     {"not-a-phone"},
		"email":     {"bob@x.com"},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Invalid phone number")
	assert.NotContains(t, body, "Full Name is required")
	assert.NotContains(t, body, "Invalid email address")
	// submitted values are echoed back
	assert.Contains(t, body, `value="Bob"`)
	assert.Contains(t, body, `value="not-a-phone"`)
	assert.Contains(t, body, `value="bob@x.com"`)
	assert.Empty(t, app.listAll(t))
}

func TestCreateKeepsEmptyAndMissingFieldsApart(t *testing.T) {
	t.Parallel()
	app := newSQLiteApp(t)

	rec := app.do(http.MethodPost, "/contacts/new", url.Values{"full_name": {"Empty"}, "phone": {""}, "email": {""}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	rec = app.do(http.MethodPost, "/contacts/new", url.Values{"full_name": {"Missing"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	items := app.listAll(t)
	require.Len(t, items, 2)
	require.NotNil(t, items[0].Phone)
	assert.Equal(t, "", *items[0].Phone)
	require.NotNil(t, items[0].Email)
	assert.Nil(t, items[1].Phone)
	assert.Nil(t, items[1].Email)
}

func TestSearch(t *testing.T) {
	t.Parallel()
	app := newSQLiteApp(t)

	for _, form := range []url.Values{
		{"full_name": {"Ada Lovelace"}, "phone": {"+44 20 7946"}, "email": {"ada@example.com"}},
		{"full_name": {"Charles Babbage"}, "email": {"charles@engine.org"}},
	} {
		require.Equal(t, http.StatusSeeOther, app.do(http.MethodPost, "/contacts/new", form).Code)
	}

	rec := app.do(http.MethodGet, "/contacts?q=ada", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Ada Lovelace")
	assert.NotContains(t, body, "Charles Babbage")
	assert.Contains(t, body, `value="ada"`)

	rec = app.do(http.MethodGet, "/contacts?q=zzz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No contacts match")

	// present but empty is a search that matches everyone
	rec = app.do(http.MethodGet, "/contacts?q=", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ada Lovelace")
	assert.Contains(t, rec.Body.String(), "Charles Babbage")
}

func TestGetContact(t *testing.T) {
	t.Parallel()
	app := newSQLiteApp(t)

	created, err := app.store.Create(context.Background(), contacts.NewContact{FullName: "Grace Hopper"})
	require.NoError(t, err)

	rec := app.do(http.MethodGet, "/contacts/"+itoa(created.ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Grace Hopper")

	for _, target := range []string{"/contacts/9999", "/contacts/abc"} {
		rec = app.do(http.MethodGet, target, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.Contains(t, rec.Body.String(), "Not found", target)
	}
}

func TestUnmatchedRouteIsNotFound(t *testing.T) {
	t.Parallel()
	app := newSQLiteApp(t)

	rec := app.do(http.MethodGet, "/nowhere/at/all", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not found")
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
}

type brokenStore struct {
	err error
}

func (s brokenStore) Create(context.Context, contacts.NewContact) (contacts.Contact, error) {
	return contacts.Contact{}, s.err
}
func (s brokenStore) List(context.Context) ([]contacts.Contact, error) { return nil, s.err }
func (s brokenStore) GetByID(context.Context, int64) (contacts.Contact, bool, error) {
	return contacts.Contact{}, false, s.err
}
func (s brokenStore) Search(context.Context, string) ([]contacts.Contact, error) { return nil, s.err }
func (s brokenStore) Ping(context.Context) error                               { return s.err }
func (s brokenStore) Close() error                                             { return nil }

func TestStoreFailureIsInternalError(t *testing.T) {
	t.Parallel()

	storeErr := &contacts.StoreError{Op: "list", Kind: contacts.Transient, Err: errors.New("dial tcp 10.0.0.7:5432: connection refused")}
	app := newTestApp(t, brokenStore{err: storeErr}, nil, false)

	for _, tc := range []struct {
		method string
		target string
		form   url.Values
	}{
		{http.MethodGet, "/contacts", nil},
		{http.MethodGet, "/contacts?q=ada", nil},
		{http.MethodGet, "/contacts/1", nil},
		{http.MethodPost, "/contacts/new", url.Values{"full_name": {"Ada"}}},
	} {
		rec := app.do(tc.method, tc.target, tc.form)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, tc.target)
		assert.Equal(t, "Something went wrong...", rec.Body.String(), tc.target)
	}
	assert.Contains(t, app.logs.String(), "connection refused")

	// validation failures never reach the store
	rec := app.do(http.MethodPost, "/contacts/new", url.Values{"full_name": {""}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Full Name is required")
}

func TestTransientStoreFailureCanBeUnavailable(t *testing.T) {
	t.Parallel()

	transient := &contacts.StoreError{Op: "list", Kind: contacts.Transient, Err: errors.New("too many connections")}
	app := newTestApp(t, brokenStore{err: transient}, nil, true)
	rec := app.do(http.MethodGet, "/contacts", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	fatal := &contacts.StoreError{Op: "list", Kind: contacts.Fatal, Err: errors.New("no such table: contacts")}
	app = newTestApp(t, brokenStore{err: fatal}, nil, true)
	rec = app.do(http.MethodGet, "/contacts", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "no such table")
}

func TestRenderFailureIsInternalError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "contacts.html"), []byte("{{.NoSuchField}}"), 0o644))
	registry, err := views.New(views.Options{Dir: dir, Reload: config.ReloadOnce})
	require.NoError(t, err)

	app := newTestApp(t, brokenStore{}, registry, false)
	rec := app.do(http.MethodGet, "/contacts", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Something went wrong...", rec.Body.String())
	assert.Contains(t, app.logs.String(), "render error")

	// not_found.html is missing from this directory too
	rec = app.do(http.MethodGet, "/missing", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPingAndHealth(t *testing.T) {
	t.Parallel()

	app := newSQLiteApp(t)
	rec := app.do(http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = app.do(http.MethodHead, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	down := newTestApp(t, brokenStore{err: errors.New("down")}, nil, false)
	rec = down.do(http.MethodHead, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestOptionalFormValue(t *testing.T) {
	t.Parallel()

	form := url.Values{"phone": {""}, "email": {"a@b"}}
	assert.Nil(t, optionalFormValue(form, "missing"))
	require.NotNil(t, optionalFormValue(form, "phone"))
	assert.Equal(t, "", *optionalFormValue(form, "phone"))
	assert.Equal(t, "a@b", *optionalFormValue(form, "email"))
}

func TestCreateReadsBodyFieldsOnly(t *testing.T) {
	t.Parallel()
	app := newSQLiteApp(t)

	rec := app.do(http.MethodPost, "/contacts/new?phone=zzz&email=q@x.com", url.Values{"full_name": {"Ada"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	items := app.listAll(t)
	require.Len(t, items, 1)
	assert.Equal(t, "Ada", items[0].FullName)
	assert.Nil(t, items[0].Phone)
	assert.Nil(t, items[0].Email)
}

func TestCreateAcceptsMultipartForm(t *testing.T) {
	t.Parallel()
	app := newSQLiteApp(t)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("full_name", "Grace Hopper"))
	require.NoError(t, w.WriteField("phone", "555 0100"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/contacts/new?email=not-an-email", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	app.echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	items := app.listAll(t)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Phone)
	assert.Equal(t, "555 0100", *items[0].Phone)
	assert.Nil(t, items[0].Email)
}

func TestEmptySearchOnEmptyBook(t *testing.T) {
	t.Parallel()
	app := newSQLiteApp(t)

	rec := app.do(http.MethodGet, "/contacts?q=", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No contacts yet.")
	assert.NotContains(t, rec.Body.String(), "No contacts match")
}

func TestCanceledRequestIsNotAnError(t *testing.T) {
	t.Parallel()

	canceled := &contacts.StoreError{Op: "list", Kind: contacts.Canceled, Err: context.Canceled}
	app := newTestApp(t, brokenStore{err: canceled}, nil, true)

	rec := app.do(http.MethodGet, "/contacts", nil)
	assert.Equal(t, statusClientClosedRequest, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Contains(t, app.logs.String(), "request canceled")
	assert.NotContains(t, app.logs.String(), "level=ERROR")
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
