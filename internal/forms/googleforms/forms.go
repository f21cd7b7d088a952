package googleforms

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	formsapi "google.golang.org/api/forms/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Client implements forms.API over the real Google Forms service.
type Client struct {
	service *formsapi.Service
}

// NewClient creates a Client. httpClient should be an authenticated
// http.Client carrying the principal's credential.
func NewClient(ctx context.Context, httpClient *http.Client) (*Client, error) {
	srv, err := formsapi.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Forms client: %v", err)
	}
	return &Client{service: srv}, nil
}

// CreateForm creates a new form shell carrying only title metadata.
func (c *Client) CreateForm(ctx context.Context, form *formsapi.Form) (*formsapi.Form, error) {
	created, err := c.service.Forms.Create(form).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("forms create: %w", err)
	}
	return created, nil
}

// BatchUpdate applies the item mutations to the form in one call.
func (c *Client) BatchUpdate(ctx context.Context, formID string, req *formsapi.BatchUpdateFormRequest) error {
	if _, err := c.service.Forms.BatchUpdate(formID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("forms batch update: %w", err)
	}
	return nil
}

// GetForm fetches the full form representation.
func (c *Client) GetForm(ctx context.Context, formID string) (*formsapi.Form, error) {
	form, err := c.service.Forms.Get(formID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("forms get: %w", err)
	}
	return form, nil
}

// IsNotFound reports whether err is a Forms API 404.
func IsNotFound(err error) bool {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code == http.StatusNotFound
	}
	return false
}
