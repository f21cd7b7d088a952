package forms

import (
	"context"
	"fmt"

	"github.com/formbridge/backend/internal/model"
	formsapi "google.golang.org/api/forms/v1"
)

// API is the subset of Google Forms operations the transformer needs. The
// real implementation lives in the googleforms package; tests use fakes.
type API interface {
	CreateForm(ctx context.Context, form *formsapi.Form) (*formsapi.Form, error)
	BatchUpdate(ctx context.Context, formID string, req *formsapi.BatchUpdateFormRequest) error
	GetForm(ctx context.Context, formID string) (*formsapi.Form, error)
}

// Provider builds an API bound to the current credential. It surfaces
// auth.ErrAuthRequired when no usable credential exists.
type Provider interface {
	GetAPI(ctx context.Context) (API, error)
}

// untitledForm is the title used when the descriptor's titles are empty.
const untitledForm = "Untitled Form"

const viewerURLFormat = "https://docs.google.com/forms/d/%s/viewform"

// Import creates a new form from the descriptor and returns its viewer link.
//
// The sequence is: create the shell form, batch-create the items (skipped
// entirely when there are none), then re-fetch the form to index the
// remote-assigned page-break identifiers by title. Note the index is built
// only after the item requests have already been sent, so option section
// references go out unresolved; this matches the long-observed behavior and
// is pinned by tests rather than silently changed.
//
// Any remote failure aborts the import. A failure after the shell was
// created leaves an orphaned form behind; the id is logged for operators.
func Import(ctx context.Context, api API, d *model.FormDescriptor) (string, error) {
	title := d.Info.Title
	if title == "" {
		title = untitledForm
	}
	documentTitle := d.Info.DocumentTitle
	if documentTitle == "" {
		documentTitle = untitledForm
	}

	created, err := api.CreateForm(ctx, &formsapi.Form{
		Info: &formsapi.Info{Title: title, DocumentTitle: documentTitle},
	})
	if err != nil {
		return "", fmt.Errorf("unable to create form: %w", err)
	}

	pageBreakIDs := make(map[string]string)

	reqs := BuildCreateItemRequests(d.Items, pageBreakIDs)
	if len(reqs) > 0 {
		err := api.BatchUpdate(ctx, created.FormId, &formsapi.BatchUpdateFormRequest{Requests: reqs})
		if err != nil {
			return "", fmt.Errorf("unable to add items to form %s: %w", created.FormId, err)
		}
	}

	fetched, err := api.GetForm(ctx, created.FormId)
	if err != nil {
		return "", fmt.Errorf("unable to fetch created form %s: %w", created.FormId, err)
	}
	for _, item := range fetched.Items {
		if item.PageBreakItem != nil {
			pageBreakIDs[item.Title] = item.ItemId
		}
	}

	return fmt.Sprintf(viewerURLFormat, created.FormId), nil
}

// Export fetches the full remote form representation.
func Export(ctx context.Context, api API, formID string) (*formsapi.Form, error) {
	form, err := api.GetForm(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch form %s: %w", formID, err)
	}
	return form, nil
}
