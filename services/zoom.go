package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"eduplatform/config"
	"eduplatform/errors"
	"eduplatform/logger"
)

const (
	defaultZoomTokenURL = "https://zoom.us/oauth/token"
	defaultZoomAPIBase  = "https://api.zoom.us/v2"

	// Recurring meeting with no fixed time; yields a stable join link.
	zoomTypeRecurringNoFixedTime = 3
)

// Meeting is the provider-side meeting a course or batch is bound to.
type Meeting struct {
	ID       string
	Topic    string
	JoinURL  string
	StartURL string
}

// MeetingAPI is the surface the provisioning service needs from the
// meeting provider.
type MeetingAPI interface {
	CreateMeeting(ctx context.Context, topic string) (*Meeting, error)
	GetMeeting(ctx context.Context, id string) (*Meeting, error)
}

// ZoomClient calls the Zoom REST API using a server-to-server OAuth
// (account_credentials) token, cached until shortly before expiry.
type ZoomClient struct {
	clientID     string
	clientSecret string
	accountID    string

	TokenURL   string
	APIBaseURL string
	HTTPClient *http.Client

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

// NewZoomClient builds a client from the supplied configuration.
func NewZoomClient(cfg config.Config) *ZoomClient {
	return &ZoomClient{
		clientID:     cfg.ZoomClientID,
		clientSecret: cfg.ZoomClientSecret,
		accountID:    cfg.ZoomAccountID,
		TokenURL:     defaultZoomTokenURL,
		APIBaseURL:   defaultZoomAPIBase,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Configured reports whether provider credentials are present.
func (c *ZoomClient) Configured() bool {
	return c.clientID != "" && c.clientSecret != "" && c.accountID != ""
}

type zoomTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (c *ZoomClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.accessToken != "" && time.Now().Before(c.expiresAt) {
		token := c.accessToken
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	if !c.Configured() {
		return "", errors.E(errors.Unavailable, "zoom credentials not configured")
	}

	form := url.Values{}
	form.Set("grant_type", "account_credentials")
	form.Set("account_id", c.accountID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", errors.E(errors.Unavailable, "zoom token request failed", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return "", errors.E(errors.Unavailable,
			fmt.Sprintf("zoom token request failed: status=%d body=%s", resp.StatusCode, string(body)))
	}

	var out zoomTokenResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", errors.E(errors.Unavailable, "invalid zoom token response", err)
	}
	if out.AccessToken == "" {
		return "", errors.E(errors.Unavailable, "zoom token response missing access_token")
	}

	// Renew a minute before actual expiry.
	c.mu.Lock()
	c.accessToken = out.AccessToken
	c.expiresAt = time.Now().Add(time.Duration(out.ExpiresIn)*time.Second - time.Minute)
	c.mu.Unlock()

	logger.Info("Fetched new Zoom access token (expires in %ds)", out.ExpiresIn)
	return out.AccessToken, nil
}

type zoomMeetingResponse struct {
	ID       int64  `json:"id"`
	Topic    string `json:"topic"`
	JoinURL  string `json:"join_url"`
	StartURL string `json:"start_url"`
}

type zoomErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// CreateMeeting creates an evergreen meeting: recurring with no fixed
// time, waiting room off, participants muted on entry, join before
// host allowed.
func (c *ZoomClient) CreateMeeting(ctx context.Context, topic string) (*Meeting, error) {
	payload := map[string]interface{}{
		"topic": topic,
		"type":  zoomTypeRecurringNoFixedTime,
		"settings": map[string]interface{}{
			"waiting_room":     false,
			"mute_upon_entry":  true,
			"join_before_host": true,
		},
	}
	var out zoomMeetingResponse
	if err := c.do(ctx, http.MethodPost, "/users/me/meetings", payload, &out); err != nil {
		return nil, err
	}
	return &Meeting{
		ID:       strconv.FormatInt(out.ID, 10),
		Topic:    out.Topic,
		JoinURL:  out.JoinURL,
		StartURL: out.StartURL,
	}, nil
}

// GetMeeting looks a meeting up by id. A NotFound error means the
// meeting is gone or expired at the provider.
func (c *ZoomClient) GetMeeting(ctx context.Context, id string) (*Meeting, error) {
	var out zoomMeetingResponse
	if err := c.do(ctx, http.MethodGet, "/meetings/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &Meeting{
		ID:       strconv.FormatInt(out.ID, 10),
		Topic:    out.Topic,
		JoinURL:  out.JoinURL,
		StartURL: out.StartURL,
	}, nil
}

func (c *ZoomClient) do(ctx context.Context, method, path string, payload, out interface{}) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.APIBaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return errors.E(errors.Unavailable, "zoom request failed", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return errors.E(errors.Unavailable, "invalid zoom response", err)
			}
		}
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.E(errors.RateLimited, "zoom rate limit hit")
	case resp.StatusCode == http.StatusNotFound:
		var zerr zoomErrorResponse
		_ = json.Unmarshal(respBody, &zerr)
		return errors.E(errors.NotFound, fmt.Sprintf("zoom meeting not found (code %d)", zerr.Code))
	default:
		return errors.E(errors.Unavailable,
			fmt.Sprintf("zoom request failed: status=%d body=%s", resp.StatusCode, string(respBody)))
	}
}
