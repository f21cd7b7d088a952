package app

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"golang.org/x/oauth2"
	formsapi "google.golang.org/api/forms/v1"

	"github.com/formbridge/backend/internal/auth"
	"github.com/formbridge/backend/internal/crypto"
	"github.com/formbridge/backend/internal/forms"
	"github.com/formbridge/backend/internal/forms/googleforms"
	"github.com/formbridge/backend/internal/handler"
)

type fakeFormsAPI struct {
	batchCalls int
	lastBatch  *formsapi.BatchUpdateFormRequest
}

func (f *fakeFormsAPI) CreateForm(_ context.Context, form *formsapi.Form) (*formsapi.Form, error) {
	return &formsapi.Form{FormId: "form-e2e", Info: form.Info}, nil
}

func (f *fakeFormsAPI) BatchUpdate(_ context.Context, formID string, req *formsapi.BatchUpdateFormRequest) error {
	f.batchCalls++
	f.lastBatch = req
	return nil
}

func (f *fakeFormsAPI) GetForm(_ context.Context, formID string) (*formsapi.Form, error) {
	return &formsapi.Form{FormId: formID}, nil
}

type fakeProvider struct {
	api forms.API
}

func (p *fakeProvider) GetAPI(ctx context.Context) (forms.API, error) {
	return p.api, nil
}

func newTestAuthService() *auth.Service {
	return auth.NewService(
		&oauth2.Config{
			ClientID:     "test-client-id",
			ClientSecret: "test-client-secret",
			RedirectURL:  "http://localhost:8080/oauth2callback",
			Scopes:       []string{"https://www.googleapis.com/auth/forms.body"},
		},
		auth.NewMemoryStore(),
		crypto.NewMockEncryptor(),
		"test-state-secret",
	)
}

func newTestApp(provider forms.Provider, authService *auth.Service) *App {
	return &App{
		authHandler: handler.NewAuthHandler(authService),
		formHandler: handler.NewFormHandler(provider),
	}
}

func TestHandleRequest_ExportWithoutCredential_RedirectsToAuth(t *testing.T) {
	// Real provider over an empty credential store: the gate fires before
	// any Forms client is built, so no network is touched.
	authService := newTestAuthService()
	app := newTestApp(googleforms.NewProvider(authService), authService)

	resp, err := app.HandleRequest(context.Background(), events.APIGatewayProxyRequest{
		Path:       "/export-form/abc123",
		HTTPMethod: "GET",
	})
	if err != nil {
		t.Fatalf("HandleRequest failed: %v", err)
	}
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("Expected status 302, got %d. Body: %s", resp.StatusCode, resp.Body)
	}
	if resp.Headers["Location"] != "/auth" {
		t.Errorf("Expected redirect to /auth, got %q", resp.Headers["Location"])
	}
}

func TestHandleRequest_ImportEndToEnd(t *testing.T) {
	api := &fakeFormsAPI{}
	app := newTestApp(&fakeProvider{api: api}, newTestAuthService())

	resp, err := app.HandleRequest(context.Background(), events.APIGatewayProxyRequest{
		Path:       "/import-form",
		HTTPMethod: "POST",
		Body:       `{"info":{"title":"T"},"items":[{"title":"PB","pageBreakItem":{}}]}`,
	})
	if err != nil {
		t.Fatalf("HandleRequest failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, resp.Body)
	}

	pattern := regexp.MustCompile(`^https://docs\.google\.com/forms/d/.+/viewform$`)
	if !pattern.MatchString(resp.Body) {
		t.Errorf("Expected viewer link, got %q", resp.Body)
	}

	if api.batchCalls != 1 {
		t.Fatalf("Expected 1 batch update, got %d", api.batchCalls)
	}
	if len(api.lastBatch.Requests) != 1 {
		t.Fatalf("Expected 1 CreateItem, got %d", len(api.lastBatch.Requests))
	}
	create := api.lastBatch.Requests[0].CreateItem
	if create.Location.Index != 0 {
		t.Errorf("Expected index 0, got %d", create.Location.Index)
	}
	if create.Item.PageBreakItem == nil {
		t.Error("Expected a pageBreakItem")
	}
}

func TestHandleRequest_AuthRedirect(t *testing.T) {
	app := newTestApp(&fakeProvider{api: &fakeFormsAPI{}}, newTestAuthService())

	resp, _ := app.HandleRequest(context.Background(), events.APIGatewayProxyRequest{
		Path:       "/auth",
		HTTPMethod: "GET",
	})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("Expected status 302, got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Headers["Location"], "test-client-id") {
		t.Errorf("Expected authorization URL, got %q", resp.Headers["Location"])
	}
}

func TestHandleRequest_Index(t *testing.T) {
	app := newTestApp(&fakeProvider{api: &fakeFormsAPI{}}, newTestAuthService())

	resp, _ := app.HandleRequest(context.Background(), events.APIGatewayProxyRequest{
		Path:       "/",
		HTTPMethod: "GET",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if resp.Headers["Content-Type"] != "text/html" {
		t.Errorf("Expected text/html, got %q", resp.Headers["Content-Type"])
	}
	if !strings.Contains(resp.Body, "FormBridge") {
		t.Errorf("Expected banner body, got %q", resp.Body)
	}
}

func TestHandleRequest_Preflight(t *testing.T) {
	app := newTestApp(&fakeProvider{api: &fakeFormsAPI{}}, newTestAuthService())

	resp, _ := app.HandleRequest(context.Background(), events.APIGatewayProxyRequest{
		Path:       "/import-form",
		HTTPMethod: "OPTIONS",
	})
	if resp.StatusCode != 204 {
		t.Fatalf("Expected status 204, got %d", resp.StatusCode)
	}
	if resp.Headers["Access-Control-Allow-Origin"] == "" {
		t.Error("Expected CORS headers on preflight response")
	}
}

func TestHandleRequest_NotFound(t *testing.T) {
	app := newTestApp(&fakeProvider{api: &fakeFormsAPI{}}, newTestAuthService())

	resp, _ := app.HandleRequest(context.Background(), events.APIGatewayProxyRequest{
		Path:       "/no-such-route",
		HTTPMethod: "GET",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", resp.StatusCode)
	}
}
