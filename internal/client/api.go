// Package client is the HTTP client used by the interactive command-line shell.
// It talks to the HandMind API, keeps the session token on disk and prompts the
// user for input.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/atinyakov/handmind/internal/httputil"
	"github.com/atinyakov/handmind/internal/models"
	"github.com/atinyakov/handmind/internal/service"
	"github.com/google/uuid"
)

// ErrNotLoggedIn is returned by calls that need a token when none is set.
var ErrNotLoggedIn = errors.New("not logged in")

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	Status  int
	Message string
	Issues  []service.Issue
}

func (e *APIError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
	}
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, is.Field+" "+is.Message)
	}
	return fmt.Sprintf("HTTP %d: %s (%s)", e.Status, e.Message, strings.Join(parts, "; "))
}

// AuthResponse is the body returned by register, login and me.
type AuthResponse struct {
	Message string            `json:"message"`
	Token   string            `json:"token"`
	User    models.PublicUser `json:"user"`
}

// API is a client of the HandMind REST API.
type API struct {
	baseURL string
	http    *http.Client
	token   string
}

// NewAPI creates an API client for baseURL using httpClient.
func NewAPI(baseURL string, httpClient *http.Client) *API {
	return &API{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// NewHTTPClient returns an http.Client that additionally trusts the PEM CA at
// caFile, for servers using a development certificate. An empty caFile keeps
// the system roots.
func NewHTTPClient(caFile string) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if caFile != "" {
		caCert, err := os.ReadFile(caFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA cert: %w", err)
		}
		caPool, err := x509.SystemCertPool()
		if err != nil {
			caPool = x509.NewCertPool()
		}
		if !caPool.AppendCertsFromPEM(caCert) {
			return nil, errors.New("failed to parse CA cert")
		}
		transport.TLSClientConfig = &tls.Config{RootCAs: caPool, MinVersion: tls.VersionTLS12}
	}
	return &http.Client{Transport: transport, Timeout: 10 * time.Second}, nil
}

// SetToken sets the bearer token sent with protected requests.
func (a *API) SetToken(token string) { a.token = token }

// Token returns the current bearer token.
func (a *API) Token() string { return a.token }

// Register creates an account and stores the returned token.
func (a *API) Register(ctx context.Context, email, password string, name *string) (AuthResponse, error) {
	var out AuthResponse
	err := a.do(ctx, http.MethodPost, "/api/auth/register", false, service.RegisterInput{Email: email, Password: password, Name: name}, &out)
	if err == nil {
		a.token = out.Token
	}
	return out, err
}

// Login authenticates and stores the returned token.
func (a *API) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	var out AuthResponse
	err := a.do(ctx, http.MethodPost, "/api/auth/login", false, service.LoginInput{Email: email, Password: password}, &out)
	if err == nil {
		a.token = out.Token
	}
	return out, err
}

// Me returns the identity behind the current token.
func (a *API) Me(ctx context.Context) (models.PublicUser, error) {
	var out AuthResponse
	err := a.do(ctx, http.MethodGet, "/api/auth/me", true, nil, &out)
	return out.User, err
}

// ListModules returns the catalogue, optionally filtered by search.
func (a *API) ListModules(ctx context.Context, search string) ([]models.Module, error) {
	path := "/api/modules"
	if search != "" {
		path += "?search=" + url.QueryEscape(search)
	}
	var out []models.Module
	err := a.do(ctx, http.MethodGet, path, false, nil, &out)
	return out, err
}

// GetModule returns one module.
func (a *API) GetModule(ctx context.Context, id int64) (models.Module, error) {
	var out models.Module
	err := a.do(ctx, http.MethodGet, modulePath(id), false, nil, &out)
	return out, err
}

// CreateModule adds a module. Requires a token.
func (a *API) CreateModule(ctx context.Context, in service.CreateModuleInput) (models.Module, error) {
	var out models.Module
	err := a.do(ctx, http.MethodPost, "/api/modules", true, in, &out)
	return out, err
}

// UpdateModule changes the fields set in in. Requires a token.
func (a *API) UpdateModule(ctx context.Context, id int64, in service.UpdateModuleInput) (models.Module, error) {
	var out models.Module
	err := a.do(ctx, http.MethodPut, modulePath(id), true, in, &out)
	return out, err
}

// DeleteModule removes a module. Requires a token.
func (a *API) DeleteModule(ctx context.Context, id int64) error {
	return a.do(ctx, http.MethodDelete, modulePath(id), true, nil, nil)
}

func modulePath(id int64) string {
	return "/api/modules/" + strconv.FormatInt(id, 10)
}

func (a *API) do(ctx context.Context, method, path string, authed bool, body, out any) error {
	if authed && a.token == "" {
		return ErrNotLoggedIn
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if authed {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var eb httputil.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&eb); err == nil {
			apiErr.Message, apiErr.Issues = eb.Error, eb.Issues
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
