package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/memohai/contactbook/internal/contacts"
)

// Template names.
const (
	contactsTemplate   = "contacts.html"
	contactTemplate    = "contact.html"
	newContactTemplate = "new_contact.html"
	notFoundTemplate   = "not_found.html"
)

type contactsPage struct {
	Contacts []contacts.Contact
	Search   contacts.SearchQuery
}

type contactPage struct {
	Contact contacts.Contact
}

type newContactPage struct {
	NewContact contacts.NewContact
	Errors     contacts.FieldErrors
}

// ContactsHandler serves the HTML contact pages.
type ContactsHandler struct {
	service *contacts.Service
	logger  *slog.Logger
}

func NewContactsHandler(log *slog.Logger, service *contacts.Service) *ContactsHandler {
	return &ContactsHandler{
		service: service,
		logger:  log.With(slog.String("handler", "contacts")),
	}
}

func (h *ContactsHandler) Register(e *echo.Echo) {
	e.GET("/", h.Index)
	e.GET("/contacts", h.List)
	e.GET("/contacts/new", h.New)
	e.POST("/contacts/new", h.Create)
	e.GET("/contacts/:id", h.Get)
	e.RouteNotFound("/*", h.NotFound)
}

func (h *ContactsHandler) Index(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, "/contacts")
}

// List shows every contact, or the search result when the q parameter is present
// (even when empty).
func (h *ContactsHandler) List(c echo.Context) error {
	var search contacts.SearchQuery
	if params := c.QueryParams(); params.Has("q") {
		q := params.Get("q")
		search.Q = &q
	}
	items, err := h.service.List(c.Request().Context(), search)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, contactsTemplate, contactsPage{Contacts: items, Search: search})
}

func (h *ContactsHandler) New(c echo.Context) error {
	return c.Render(http.StatusOK, newContactTemplate, newContactPage{})
}

// Create stores a valid submission and redirects to the list, or shows the form
// again with the submitted values and the field errors.
func (h *ContactsHandler) Create(c echo.Context) error {
	form, err := postFormParams(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form").SetInternal(err)
	}
	submission := contacts.NewContact{
		FullName: form.Get("full_name"),
		Phone:    optionalFormValue(form, "phone"),
		Email:    optionalFormValue(form, "email"),
	}

	_, fieldErrs, err := h.service.Create(c.Request().Context(), submission)
	if err != nil {
		return err
	}
	if !fieldErrs.Empty() {
		return c.Render(http.StatusOK, newContactTemplate, newContactPage{NewContact: submission, Errors: fieldErrs})
	}
	return c.Redirect(http.StatusSeeOther, "/contacts")
}

func (h *ContactsHandler) Get(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return h.NotFound(c)
	}
	item, ok, err := h.service.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if !ok {
		return h.NotFound(c)
	}
	return c.Render(http.StatusOK, contactTemplate, contactPage{Contact: item})
}

func (h *ContactsHandler) NotFound(c echo.Context) error {
	return c.Render(http.StatusNotFound, notFoundTemplate, nil)
}
