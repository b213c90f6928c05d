package handlers

import (
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

// multipartMemory matches echo's in-memory limit for multipart forms.
const multipartMemory = 32 << 20

// postFormParams returns the fields of the request body only. Unlike
// echo.Context.FormParams, query string values are not merged in.
func postFormParams(c echo.Context) (url.Values, error) {
	req := c.Request()
	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		if err := req.ParseMultipartForm(multipartMemory); err != nil {
			return nil, err
		}
	} else if err := req.ParseForm(); err != nil {
		return nil, err
	}
	return req.PostForm, nil
}

// optionalFormValue returns nil when the field was not submitted at all and a
// pointer to the (possibly empty) value otherwise.
func optionalFormValue(form url.Values, key string) *string {
	if !form.Has(key) {
		return nil
	}
	value := form.Get(key)
	return &value
}
