package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/formbridge/backend/internal/auth"
	"github.com/formbridge/backend/internal/forms"
	"github.com/formbridge/backend/internal/forms/googleforms"
)

// FormHandler handles form export and import requests.
type FormHandler struct {
	provider forms.Provider
}

// NewFormHandler creates a new FormHandler.
func NewFormHandler(p forms.Provider) *FormHandler {
	return &FormHandler{provider: p}
}

// redirectToAuth sends an unauthenticated caller to the authorization flow.
func redirectToAuth() events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusFound,
		Headers: map[string]string{
			"Location": "/auth",
		},
	}
}

// Export returns the remote form's JSON representation verbatim.
func (h *FormHandler) Export(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	formID := req.PathParameters["formId"]
	if formID == "" {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "Missing form id"}, nil
	}

	api, err := h.provider.GetAPI(ctx)
	if errors.Is(err, auth.ErrAuthRequired) {
		return redirectToAuth(), nil
	}
	if err != nil {
		fmt.Printf("GetAPI error: %v\n", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: "Failed to create Forms client"}, nil
	}

	form, err := forms.Export(ctx, api, formID)
	if err != nil {
		if googleforms.IsNotFound(err) {
			fmt.Printf("Export: form %s not found\n", formID)
		} else {
			fmt.Printf("Export error: %v\n", err)
		}
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: "Error exporting form"}, nil
	}

	body, err := json.Marshal(form)
	if err != nil {
		fmt.Printf("Export marshal error: %v\n", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: "Error exporting form"}, nil
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}, nil
}

// Import creates a new form from the posted descriptor and returns its
// viewer link. The body is validated before any remote call is made.
func (h *FormHandler) Import(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	descriptor, err := forms.ParseDescriptor([]byte(req.Body))
	if err != nil {
		fmt.Printf("ParseDescriptor error: %v\n", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "Invalid form structure"}, nil
	}

	api, err := h.provider.GetAPI(ctx)
	if errors.Is(err, auth.ErrAuthRequired) {
		return redirectToAuth(), nil
	}
	if err != nil {
		fmt.Printf("GetAPI error: %v\n", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: "Failed to create Forms client"}, nil
	}

	link, err := forms.Import(ctx, api, descriptor)
	if err != nil {
		fmt.Printf("Import error: %v\n", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: "Error creating form"}, nil
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Body:       link,
		Headers: map[string]string{
			"Content-Type": "text/plain",
		},
	}, nil
}
