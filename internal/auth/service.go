package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/formbridge/backend/internal/crypto"
	"github.com/formbridge/backend/internal/model"
)

// ErrAuthRequired signals that no usable credential exists and the caller
// must be sent through the authorization flow. A failed refresh collapses to
// this same outcome.
var ErrAuthRequired = errors.New("authorization required")

// stateTTL bounds how long an issued authorization state token is accepted.
const stateTTL = 10 * time.Minute

// Service handles the OAuth2 flow and owns the credential lifecycle: code
// exchange, persistence of the single credential slot, and the authorization
// gate applied before every protected operation.
type Service struct {
	oauthConfig *oauth2.Config
	store       CredentialStore
	kmsService  crypto.Encryptor
	stateSecret string

	// Overridable in tests.
	refresh func(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error)
	now     func() time.Time
}

// NewService creates a new Service. The oauthConfig should be constructed by
// the caller (e.g., from environment variables and resolved secrets).
func NewService(oauthConfig *oauth2.Config, store CredentialStore, kmsService crypto.Encryptor, stateSecret string) *Service {
	s := &Service{
		oauthConfig: oauthConfig,
		store:       store,
		kmsService:  kmsService,
		stateSecret: stateSecret,
		now:         time.Now,
	}
	s.refresh = s.refreshWithConfig
	return s
}

// Config returns the OAuth2 config.
func (s *Service) Config() *oauth2.Config {
	return s.oauthConfig
}

// AuthCodeURL returns the external authorization URL to redirect the caller
// to, requesting offline access so a refresh token is issued. The state
// parameter is a short-lived signed token.
func (s *Service) AuthCodeURL() (string, error) {
	state, err := s.signState()
	if err != nil {
		return "", fmt.Errorf("failed to sign state: %w", err)
	}
	return s.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

func (s *Service) signState() (string, error) {
	claims := jwt.MapClaims{
		"jti": uuid.New().String(),
		"iat": s.now().Unix(),
		"exp": s.now().Add(stateTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.stateSecret))
}

// VerifyState checks the signature and expiry of a state token returned by
// the authorization service.
func (s *Service) VerifyState(state string) error {
	token, err := jwt.Parse(state, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.stateSecret), nil
	})
	if err != nil {
		return fmt.Errorf("invalid state token: %w", err)
	}
	if !token.Valid {
		return fmt.Errorf("invalid state token")
	}
	return nil
}

// Exchange exchanges the authorization code for an access token.
func (s *Service) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return s.oauthConfig.Exchange(ctx, code)
}

// SaveToken encrypts the refresh token and overwrites the credential slot.
// Refresh responses often omit the refresh token; in that case the stored one
// is carried forward so the slot never loses it.
func (s *Service) SaveToken(ctx context.Context, token *oauth2.Token) error {
	var encrypted string
	if token.RefreshToken != "" {
		var err error
		encrypted, err = s.kmsService.Encrypt(ctx, token.RefreshToken)
		if err != nil {
			return fmt.Errorf("failed to encrypt refresh token: %w", err)
		}
	} else if existing, err := s.store.Get(ctx); err == nil {
		encrypted = existing.EncryptedRefreshToken
	}

	scope, _ := token.Extra("scope").(string)

	return s.store.Set(ctx, &model.StoredCredential{
		SlotID:                SlotID,
		AccessToken:           token.AccessToken,
		EncryptedRefreshToken: encrypted,
		TokenType:             token.TokenType,
		Scope:                 scope,
		Expiry:                token.Expiry,
		UpdatedAt:             s.now(),
	})
}

// Credential applies the authorization gate and returns a usable token:
//  1. Empty slot: ErrAuthRequired.
//  2. Unexpired credential: returned as-is, no remote calls.
//  3. Expired credential: exactly one refresh attempt; success persists the
//     new credential, failure collapses to ErrAuthRequired.
//
// Store I/O failures (as opposed to an empty slot) are returned unchanged.
func (s *Service) Credential(ctx context.Context) (*oauth2.Token, error) {
	cred, err := s.store.Get(ctx)
	if errors.Is(err, ErrNoCredential) {
		return nil, ErrAuthRequired
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credential slot: %w", err)
	}

	var refreshToken string
	if cred.EncryptedRefreshToken != "" {
		refreshToken, err = s.kmsService.Decrypt(ctx, cred.EncryptedRefreshToken)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
		}
	}

	token := &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: refreshToken,
		TokenType:    cred.TokenType,
		Expiry:       cred.Expiry,
	}
	if cred.Expiry.After(s.now()) {
		return token, nil
	}

	refreshed, err := s.refresh(ctx, token)
	if err != nil {
		fmt.Printf("Token refresh failed: %v\n", err)
		return nil, ErrAuthRequired
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = token.RefreshToken
	}
	if err := s.SaveToken(ctx, refreshed); err != nil {
		return nil, fmt.Errorf("failed to persist refreshed credential: %w", err)
	}
	return refreshed, nil
}

func (s *Service) refreshWithConfig(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	src := s.oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: token.RefreshToken})
	return src.Token()
}

// Client returns an http.Client authenticated with the gated credential. The
// token source is static: refresh is owned by the gate, not the transport.
func (s *Service) Client(ctx context.Context) (*http.Client, error) {
	token, err := s.Credential(ctx)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(token)), nil
}
