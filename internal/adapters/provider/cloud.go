package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mahhuOps/portfoliovn/internal/domain"
)

// Cloud talks to a remote identity backend over JSON/HTTP. An empty base URL
// means the provider is not configured: every call fails with
// ErrProviderUnavailable and the adapter starts in the signed-out state.
type Cloud struct {
	*notifier
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewCloud(baseURL, apiKey string, timeout time.Duration) *Cloud {
	return &Cloud{
		notifier: newNotifier(),
		baseURL:  baseURL,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type accountResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

func (c *Cloud) SignIn(ctx context.Context, email, password string) (domain.Identity, error) {
	if c.baseURL == "" {
		return domain.Identity{}, domain.ErrProviderUnavailable
	}
	payload := map[string]string{"email": email, "password": password}
	var resp accountResponse
	if err := c.post(ctx, "/v1/accounts/sign-in", payload, &resp); err != nil {
		return domain.Identity{}, mapStatusErr(err, domain.ErrInvalidCredentials)
	}
	identity := domain.Identity{ProviderID: resp.ID, Email: resp.Email, DisplayName: resp.DisplayName}
	c.set(&identity)
	return identity, nil
}

func (c *Cloud) SignUp(ctx context.Context, email, password, displayName string) (domain.Identity, error) {
	if c.baseURL == "" {
		return domain.Identity{}, domain.ErrProviderUnavailable
	}
	payload := map[string]string{"email": email, "password": password, "display_name": displayName}
	var resp accountResponse
	if err := c.post(ctx, "/v1/accounts/sign-up", payload, &resp); err != nil {
		return domain.Identity{}, mapStatusErr(err, domain.ErrEmailTaken)
	}
	identity := domain.Identity{ProviderID: resp.ID, Email: resp.Email, DisplayName: displayName}
	if identity.DisplayName == "" {
		identity.DisplayName = resp.DisplayName
	}
	c.set(&identity)
	return identity, nil
}

func (c *Cloud) SignOut(ctx context.Context) error {
	defer c.clear()
	if c.baseURL == "" {
		return domain.ErrProviderUnavailable
	}
	if err := c.post(ctx, "/v1/accounts/sign-out", map[string]string{}, nil); err != nil {
		return domain.ErrProviderUnavailable
	}
	return nil
}

// statusError carries the HTTP status through the backoff loop so the caller
// can map rejections distinctly from outages.
type statusError struct{ code int }

func (e *statusError) Error() string { return fmt.Sprintf("provider error: %d", e.code) }

func mapStatusErr(err error, rejected error) error {
	var se *statusError
	if errors.As(err, &se) && se.code >= 400 && se.code < 500 {
		return rejected
	}
	return domain.ErrProviderUnavailable
}

func (c *Cloud) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	op := func() error {
		body, err := json.Marshal(payload)
		if err != nil {
			return backoff.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s%s", c.baseURL, path), bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("X-API-Key", c.apiKey)
		}
		res, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer res.Body.Close()
		if res.StatusCode >= 500 {
			return &statusError{code: res.StatusCode}
		}
		if res.StatusCode >= 400 {
			return backoff.Permanent(&statusError{code: res.StatusCode})
		}
		if out != nil {
			if err := json.NewDecoder(res.Body).Decode(out); err != nil {
				return backoff.Permanent(err)
			}
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = 3 * time.Second
	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}
