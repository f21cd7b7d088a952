package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/formbridge/backend/internal/auth"
	"github.com/formbridge/backend/internal/crypto"
	"github.com/formbridge/backend/internal/forms/googleforms"
	"github.com/formbridge/backend/internal/handler"
	"github.com/formbridge/backend/internal/secret"
)

const indexBody = `<html><body><h1>FormBridge</h1><p>Google Forms import/export proxy. Start at <a href="/auth">/auth</a>.</p></body></html>`

// App holds the dependencies for the Lambda function.
type App struct {
	authHandler      *handler.AuthHandler
	formHandler      *handler.FormHandler
	apiGatewaySecret string
}

// NewApp initializes the application dependencies.
func NewApp(ctx context.Context) *App {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		panic(fmt.Sprintf("unable to load SDK config, %v", err))
	}

	// KMS Client
	var kmsService crypto.Encryptor
	if os.Getenv("DEV_MODE") == "true" {
		kmsService = crypto.NewMockEncryptor()
		fmt.Println("Using MockEncryptor (DEV_MODE=true)")
	} else {
		kmsKeyID := os.Getenv("KMS_KEY_ID")
		if kmsKeyID == "" {
			kmsKeyID = "alias/formbridge-credential-key"
		}
		kmsService = crypto.NewKMSService(kms.NewFromConfig(cfg), kmsKeyID)
	}

	// ---------- Secret Resolver ----------
	var resolver secret.Resolver
	if os.Getenv("DEV_MODE") == "true" {
		resolver = secret.NewEnvResolver()
		fmt.Println("Using EnvResolver (DEV_MODE=true)")
	} else {
		resolver = secret.NewSSMResolver(ssm.NewFromConfig(cfg))
		fmt.Println("Using SSMResolver (SSM Parameter Store)")
	}

	googleClientSecretParam := os.Getenv("GOOGLE_CLIENT_SECRET_PARAM")
	if googleClientSecretParam == "" {
		googleClientSecretParam = "/formbridge/google-client-secret"
	}
	googleClientSecret, err := resolver.GetSecret(ctx, googleClientSecretParam)
	if err != nil {
		log.Printf("WARNING: failed to resolve GOOGLE_CLIENT_SECRET: %v", err)
	}

	stateSecretParam := os.Getenv("STATE_SECRET_PARAM")
	if stateSecretParam == "" {
		stateSecretParam = "/formbridge/state-secret"
	}
	stateSecret, err := resolver.GetSecret(ctx, stateSecretParam)
	if err != nil {
		log.Printf("WARNING: failed to resolve STATE_SECRET: %v", err)
		stateSecret = "default-dev-secret"
	}

	apiGatewaySecretParam := os.Getenv("API_GATEWAY_SECRET_PARAM")
	if apiGatewaySecretParam == "" {
		apiGatewaySecretParam = "/formbridge/api-gateway-secret"
	}
	apiGatewaySecret, err := resolver.GetSecret(ctx, apiGatewaySecretParam)
	if err != nil {
		log.Printf("WARNING: failed to resolve API_GATEWAY_SECRET: %v", err)
	}

	// OAuth2 Config
	redirectURL := os.Getenv("GOOGLE_REDIRECT_URL")
	if redirectURL == "" {
		redirectURL = "http://localhost:8080/oauth2callback"
	}

	oauthConfig := &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: googleClientSecret,
		RedirectURL:  redirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/forms.body",
			"https://www.googleapis.com/auth/forms.responses.readonly",
		},
		Endpoint: google.Endpoint,
	}

	// Credential Store (single slot)
	var store auth.CredentialStore
	if os.Getenv("DEV_MODE") == "true" {
		store = auth.NewMemoryStore()
		fmt.Println("Using MemoryStore (DEV_MODE=true)")
	} else {
		credentialsTable := os.Getenv("CREDENTIALS_TABLE")
		if credentialsTable == "" {
			credentialsTable = "Credentials"
		}
		store = auth.NewDynamoStore(dynamodb.NewFromConfig(cfg), credentialsTable)
	}

	authService := auth.NewService(oauthConfig, store, kmsService, stateSecret)

	return &App{
		authHandler:      handler.NewAuthHandler(authService),
		formHandler:      handler.NewFormHandler(googleforms.NewProvider(authService)),
		apiGatewaySecret: apiGatewaySecret,
	}
}

// HandleRequest routes API Gateway requests to the appropriate handler.
func (app *App) HandleRequest(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	path := req.Path
	method := req.HTTPMethod

	fmt.Printf("Request: %s %s\n", method, path)

	// CORS Preflight
	if method == "OPTIONS" {
		return corsResponse(events.APIGatewayProxyResponse{StatusCode: 204}), nil
	}

	// Security: Verify Request Origin (CloudFront only)
	if os.Getenv("DEV_MODE") != "true" && app.apiGatewaySecret != "" {
		if req.Headers["X-Origin-Verify"] != app.apiGatewaySecret && req.Headers["x-origin-verify"] != app.apiGatewaySecret {
			fmt.Printf("Security Block: Missing or invalid X-Origin-Verify header\n")
			return events.APIGatewayProxyResponse{
				StatusCode: http.StatusForbidden,
				Body:       "Forbidden: Access denied",
			}, nil
		}
	}

	// Strip /api prefix if present (for CloudFront proxying)
	if strings.HasPrefix(path, "/api") {
		path = strings.TrimPrefix(path, "/api")
	}

	if req.PathParameters == nil {
		req.PathParameters = make(map[string]string)
	}

	if path == "/" && method == "GET" {
		return corsResponse(events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Body:       indexBody,
			Headers: map[string]string{
				"Content-Type": "text/html",
			},
		}), nil
	}

	if path == "/auth" && method == "GET" {
		return corsResponse(must(app.authHandler.Login(ctx, req))), nil
	}
	if path == "/oauth2callback" && method == "GET" {
		return corsResponse(must(app.authHandler.Callback(ctx, req))), nil
	}

	if strings.HasPrefix(path, "/export-form/") && method == "GET" {
		req.PathParameters["formId"] = strings.Trim(strings.TrimPrefix(path, "/export-form/"), "/")
		return corsResponse(must(app.formHandler.Export(ctx, req))), nil
	}
	if path == "/import-form" && method == "POST" {
		return corsResponse(must(app.formHandler.Import(ctx, req))), nil
	}

	return corsResponse(events.APIGatewayProxyResponse{
		StatusCode: http.StatusNotFound,
		Body:       fmt.Sprintf("Not Found: %s %s", method, path),
	}), nil
}

// corsResponse adds CORS headers to an API Gateway response.
func corsResponse(resp events.APIGatewayProxyResponse) events.APIGatewayProxyResponse {
	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	resp.Headers["Access-Control-Allow-Origin"] = os.Getenv("ALLOWED_ORIGIN")
	if resp.Headers["Access-Control-Allow-Origin"] == "" {
		resp.Headers["Access-Control-Allow-Origin"] = "*"
	}
	resp.Headers["Access-Control-Allow-Methods"] = "GET,POST,OPTIONS"
	resp.Headers["Access-Control-Allow-Headers"] = "Content-Type,Authorization"
	return resp
}

// must unwraps a handler response, converting an unexpected error into a
// generic 500.
func must(resp events.APIGatewayProxyResponse, err error) events.APIGatewayProxyResponse {
	if err != nil {
		fmt.Printf("Handler error: %v\n", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: "Internal Server Error"}
	}
	return resp
}
