package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/formbridge/backend/internal/auth"
)

// AuthHandler handles the authorization flow endpoints.
type AuthHandler struct {
	authService *auth.Service
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(s *auth.Service) *AuthHandler {
	return &AuthHandler{authService: s}
}

// Login redirects the caller to the external authorization URL.
func (h *AuthHandler) Login(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	url, err := h.authService.AuthCodeURL()
	if err != nil {
		fmt.Printf("AuthCodeURL error: %v\n", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: "Failed to build authorization URL"}, nil
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusFound,
		Headers: map[string]string{
			"Location": url,
		},
	}, nil
}

// Callback exchanges the authorization code for a credential and persists
// it. Exchange failure is terminal: it is reported, not retried.
func (h *AuthHandler) Callback(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	code := req.QueryStringParameters["code"]
	if code == "" {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "Missing code"}, nil
	}

	// State is present on redirects we initiated; verify when given so a
	// manually pasted code still works.
	if state := req.QueryStringParameters["state"]; state != "" {
		if err := h.authService.VerifyState(state); err != nil {
			fmt.Printf("VerifyState error: %v\n", err)
			return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "Invalid state"}, nil
		}
	}

	token, err := h.authService.Exchange(ctx, code)
	if err != nil {
		fmt.Printf("Exchange error: %v\n", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: "Failed to exchange code"}, nil
	}

	if err := h.authService.SaveToken(ctx, token); err != nil {
		fmt.Printf("SaveToken error: %v\n", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: "Failed to store credential"}, nil
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Body:       "Authorization successful. You can close this tab.",
		Headers: map[string]string{
			"Content-Type": "text/plain",
		},
	}, nil
}
