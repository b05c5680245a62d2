package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/artscout-ai/artscout/pkg/common/models"
	"golang.org/x/oauth2"
)

// Credentials holds the script-app login used for the password grant.
type Credentials struct {
	Username     string
	Password     string
	ClientID     string
	ClientSecret string
	UserAgent    string
	BaseURL      string
	TokenURL     string
}

func (c Credentials) Validate() error {
	if c.Username == "" || c.Password == "" || c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("missing reddit credentials")
	}
	return nil
}

// Client talks to the reddit OAuth API. One instance is constructed at
// startup and reused across invocations; the token source refreshes the
// password-grant token transparently.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(creds Credentials) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	conf := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  creds.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	// Reddit rejects requests without a descriptive User-Agent, including
	// the token exchange itself.
	uaClient := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &userAgentTransport{
			agent: creds.UserAgent,
			base:  http.DefaultTransport,
		},
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, uaClient)

	source := oauth2.ReuseTokenSource(nil, &passwordTokenSource{
		ctx:      ctx,
		conf:     conf,
		username: creds.Username,
		password: creds.Password,
	})

	httpClient := oauth2.NewClient(ctx, source)
	httpClient.Timeout = 30 * time.Second

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(creds.BaseURL, "/"),
	}, nil
}

// Me returns the authenticated account name. Used at startup to catch
// credential problems before any scanning happens.
func (c *Client) Me(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/me", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch account: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("account lookup returned status %d", resp.StatusCode)
	}

	var account accountResponse
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return "", fmt.Errorf("failed to decode account: %w", err)
	}
	return account.Name, nil
}

// ListNew fetches the newest posts of a subreddit, newest-first as the
// platform returns them.
func (c *Client) ListNew(ctx context.Context, subreddit string, limit int) ([]models.Post, error) {
	endpoint := fmt.Sprintf("%s/r/%s/new.json?limit=%d&raw_json=1", c.baseURL, url.PathEscape(subreddit), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list r/%s: %w", subreddit, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("listing r/%s returned status %d: %s", subreddit, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var page listing
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode listing for r/%s: %w", subreddit, err)
	}

	posts := make([]models.Post, 0, len(page.Data.Children))
	for _, child := range page.Data.Children {
		s := child.Data
		posts = append(posts, models.Post{
			ID:        s.ID,
			Title:     s.Title,
			Body:      s.SelfText,
			URL:       "https://www.reddit.com" + s.Permalink,
			Subreddit: s.Subreddit,
			Author:    s.Author,
			CreatedAt: time.Unix(int64(s.CreatedUTC), 0).UTC(),
		})
	}
	return posts, nil
}

// Reply posts a comment on the given submission id.
func (c *Client) Reply(ctx context.Context, postID, body string) error {
	form := url.Values{
		"api_type": {"json"},
		"thing_id": {"t3_" + postID},
		"text":     {body},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/comment", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post comment on %s: %w", postID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("comment on %s returned status %d", postID, resp.StatusCode)
	}

	var result commentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode comment response for %s: %w", postID, err)
	}
	if len(result.JSON.Errors) > 0 {
		return fmt.Errorf("reddit rejected comment on %s: %s", postID, formatAPIErrors(result.JSON.Errors))
	}
	return nil
}

func formatAPIErrors(errs [][]interface{}) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		fields := make([]string, 0, len(e))
		for _, f := range e {
			switch v := f.(type) {
			case string:
				fields = append(fields, v)
			case float64:
				fields = append(fields, strconv.FormatFloat(v, 'f', -1, 64))
			}
		}
		parts = append(parts, strings.Join(fields, " "))
	}
	return strings.Join(parts, "; ")
}

// passwordTokenSource re-runs the password grant whenever the cached
// token expires; script-app tokens carry no refresh token.
type passwordTokenSource struct {
	ctx      context.Context
	conf     *oauth2.Config
	username string
	password string
}

func (s *passwordTokenSource) Token() (*oauth2.Token, error) {
	return s.conf.PasswordCredentialsToken(s.ctx, s.username, s.password)
}

type userAgentTransport struct {
	agent string
	base  http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.agent)
	return t.base.RoundTrip(clone)
}
