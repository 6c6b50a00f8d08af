package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	apperrors "github.com/heartbeat-sense/heartbeat-go/internal/errors"
	"github.com/heartbeat-sense/heartbeat-go/measure"
	"github.com/heartbeat-sense/heartbeat-go/profile"
)

// Client is the typed client for the Heartbeat HTTP API. Authenticated
// requests carry `Authorization: Bearer <token>` injected by an
// oauth2.Transport; login and register go out on a bare client since no
// token exists yet. No client-side timeout is imposed beyond the caller's
// context.
type Client struct {
	baseURL string
	authed  *http.Client
	plain   *http.Client
}

// New creates a Client against baseURL. source supplies the bearer token
// per request; see StoreTokenSource.
func New(baseURL string, source oauth2.TokenSource) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[api.New] baseURL is required")
	}
	if source == nil {
		return nil, errors.New("[api.New] token source is required")
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		authed:  &http.Client{Transport: &oauth2.Transport{Source: source}},
		plain:   &http.Client{},
	}, nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Age       int    `json:"age"`
	Gender    string `json:"gender"`
	Email     string `json:"email"`
	Number    string `json:"number"`
	Password  string `json:"password"`
}

type ActivityRequest struct {
	Title       string `json:"title"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// Login exchanges credentials for a token and profile.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*profile.User, error) {
	var user profile.User
	if err := c.doJSON(ctx, c.plain, http.MethodPost, "/api/auth/login", nil, req, &user); err != nil {
		return nil, errors.Wrap(err, "[Client.Login]")
	}
	return &user, nil
}

// Register creates an account; the response shape matches Login.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*profile.User, error) {
	var user profile.User
	if err := c.doJSON(ctx, c.plain, http.MethodPost, "/api/auth/register", nil, req, &user); err != nil {
		return nil, errors.Wrap(err, "[Client.Register]")
	}
	return &user, nil
}

// Me returns the authenticated user's profile, optionally carrying a
// rotated token.
func (c *Client) Me(ctx context.Context) (*profile.User, error) {
	var user profile.User
	if err := c.doJSON(ctx, c.authed, http.MethodGet, "/api/auth/me", nil, nil, &user); err != nil {
		return nil, errors.Wrap(err, "[Client.Me]")
	}
	return &user, nil
}

// UpdateProfile sends a partial profile update and returns the updated
// profile.
func (c *Client) UpdateProfile(ctx context.Context, fields map[string]any) (*profile.User, error) {
	var user profile.User
	if err := c.doJSON(ctx, c.authed, http.MethodPut, "/api/users/me", nil, fields, &user); err != nil {
		return nil, errors.Wrap(err, "[Client.UpdateProfile]")
	}
	return &user, nil
}

type measurementsResponse struct {
	Items []measure.Raw `json:"items"`
}

// LatestMeasurements fetches up to limit recent samples, optionally only
// those after since.
func (c *Client) LatestMeasurements(ctx context.Context, limit int, since *time.Time) ([]measure.Raw, error) {
	query := url.Values{"limit": {fmt.Sprintf("%d", limit)}}
	if since != nil {
		query.Set("since", since.UTC().Format(time.RFC3339))
	}

	var resp measurementsResponse
	if err := c.doJSON(ctx, c.authed, http.MethodGet, "/api/measurements/latest", query, nil, &resp); err != nil {
		return nil, errors.Wrap(err, "[Client.LatestMeasurements]")
	}
	return resp.Items, nil
}

// AssignActivity links a measurement to an activity, or unlinks it when
// activityID is nil. The request body is the bare integer id or null.
func (c *Client) AssignActivity(ctx context.Context, measurementID int64, activityID *int) (*measure.Raw, error) {
	path := fmt.Sprintf("/api/measurements/%d/activity", measurementID)

	var updated measure.Raw
	if err := c.doJSON(ctx, c.authed, http.MethodPut, path, nil, activityID, &updated); err != nil {
		return nil, errors.Wrap(err, "[Client.AssignActivity]")
	}
	return &updated, nil
}

// ListActivities returns the user's activities.
func (c *Client) ListActivities(ctx context.Context) ([]measure.Activity, error) {
	var activities []measure.Activity
	if err := c.doJSON(ctx, c.authed, http.MethodGet, "/api/activities", nil, nil, &activities); err != nil {
		return nil, errors.Wrap(err, "[Client.ListActivities]")
	}
	return activities, nil
}

// CreateActivity creates a new activity.
func (c *Client) CreateActivity(ctx context.Context, req ActivityRequest) (*measure.Activity, error) {
	var activity measure.Activity
	if err := c.doJSON(ctx, c.authed, http.MethodPost, "/api/activities", nil, req, &activity); err != nil {
		return nil, errors.Wrap(err, "[Client.CreateActivity]")
	}
	return &activity, nil
}

// UpdateActivity updates an existing activity.
func (c *Client) UpdateActivity(ctx context.Context, id int, req ActivityRequest) (*measure.Activity, error) {
	path := fmt.Sprintf("/api/activities/%d", id)

	var activity measure.Activity
	if err := c.doJSON(ctx, c.authed, http.MethodPut, path, nil, req, &activity); err != nil {
		return nil, errors.Wrap(err, "[Client.UpdateActivity]")
	}
	return &activity, nil
}

// doJSON performs one JSON request/response cycle. 401 and 403 collapse to
// ErrUnauthorized so every call site shares the session-invalid behavior;
// other failures carry a human-readable message for the view layer.
func (c *Client) doJSON(ctx context.Context, httpc *http.Client, method, path string, query url.Values, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		blob, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshal request")
		}
		reqBody = bytes.NewReader(blob)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpc.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperrors.ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return errors.Errorf("%s %s: %s", method, path, errorMessage(resp))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Debug().Err(err).Str("path", path).Msg("response body did not decode")
		return apperrors.Wrapf(apperrors.ErrBadResponse, "%s %s", method, path)
	}
	return nil
}

// errorMessage extracts a displayable message from an error response body.
func errorMessage(resp *http.Response) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return resp.Status
}
