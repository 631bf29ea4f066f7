// Package perpetua is the Perpetua API client used by goalsync: goal creation
// over REST and product search over GraphQL.
//
// Every call is a single attempt. Failures come back as *Error with a Class
// that tells the batch driver whether to retry, record and continue, or halt.
package perpetua

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/goalsync/internal/constants"
	"github.com/mrz1836/goalsync/internal/domain"
	"github.com/mrz1836/goalsync/internal/errors"
)

// maxResponseBody bounds how much of any response is read.
const maxResponseBody = 1 << 20

// Options configures a Client.
type Options struct {
	BaseURL    string
	GraphQLURL string
	CompanyID  string
	Token      string
	Origin     string
	Referer    string
	Timeout    time.Duration

	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// Client talks to one Perpetua company account.
type Client struct {
	baseURL    string
	graphqlURL string
	companyID  string
	token      string
	origin     string
	referer    string
	timeout    time.Duration
	httpClient *http.Client
}

// New validates opts and returns a Client.
func New(opts Options) (*Client, error) {
	if opts.Token == "" {
		return nil, errors.ErrMissingToken
	}
	if opts.CompanyID == "" {
		return nil, fmt.Errorf("company id %w", errors.ErrEmptyValue)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = constants.DefaultAPIBaseURL
	}
	if opts.GraphQLURL == "" {
		opts.GraphQLURL = constants.DefaultGraphQLURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = constants.DefaultRequestTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		graphqlURL: opts.GraphQLURL,
		companyID:  opts.CompanyID,
		token:      opts.Token,
		origin:     opts.Origin,
		referer:    opts.Referer,
		timeout:    opts.Timeout,
		httpClient: httpClient,
	}, nil
}

// createResponse accepts both {"id": ...} and {"goal": {"id": ...}}.
type createResponse struct {
	ID   flexID `json:"id"`
	Goal *struct {
		ID flexID `json:"id"`
	} `json:"goal"`
}

// CreateGoal posts payload and returns the new goal's remote id. The id is
// empty when the platform acknowledges without echoing one.
func (c *Client) CreateGoal(ctx context.Context, payload *domain.GoalPayload) (string, error) {
	const op = "create goal"

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling goal payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/companies/%s/goals/custom/", c.baseURL, url.PathEscape(c.companyID))
	respBody, err := c.do(ctx, op, endpoint, body)
	if err != nil {
		return "", err
	}

	var created createResponse
	if len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, &created); err != nil {
			return "", &Error{Op: op, Body: string(respBody), Class: ClassRejected, Err: err}
		}
	}

	id := string(created.ID)
	if id == "" && created.Goal != nil {
		id = string(created.Goal.ID)
	}
	if id == "" {
		zerolog.Ctx(ctx).Warn().Str("component", "perpetua").Str("goal", payload.Name).
			Msg("goal created but response carried no id")
	}
	return id, nil
}

// do sends one authenticated POST and returns the 2xx response body.
func (c *Client) do(ctx context.Context, op, endpoint string, body []byte) ([]byte, error) {
	logger := zerolog.Ctx(ctx).With().Str("component", "perpetua").Str("op", op).Logger()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug().Err(err).Dur("duration", time.Since(start)).Msg("request failed")
		return nil, &Error{Op: op, Class: ClassTransient, Err: transportCause(ctx, err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &Error{Op: op, Class: ClassTransient, Err: transportCause(ctx, err)}
	}

	logger.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text := string(respBody)
		return nil, &Error{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       text,
			Class:      classifyStatus(resp.StatusCode, text),
		}
	}
	return respBody, nil
}

// transportCause keeps parent cancellation visible to errors.Is(err, context.Canceled).
func transportCause(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !stderrors.Is(err, ctxErr) {
		return fmt.Errorf("%w: %w", ctxErr, err)
	}
	return err
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.origin != "" {
		req.Header.Set("Origin", c.origin)
	}
	if c.referer != "" {
		req.Header.Set("Referer", c.referer)
	}
}

// flexID decodes an id sent as either a JSON number or string.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}
