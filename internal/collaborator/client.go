// Package collaborator implements the JSON-over-HTTP client for the
// external grading service. All grading, teaching and insight generation
// happen on the other side of this boundary; the client only knows the
// request/response shapes and how to map failures.
package collaborator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/qnotes/smap/internal/auth"
	"github.com/qnotes/smap/internal/model"
)

const defaultTimeout = 30 * time.Second

// Client talks to the grading collaborator's practice endpoint.
type Client struct {
	baseURL  string
	sessions auth.Provider
	http     *http.Client
}

// New creates a collaborator client. baseURL is the service root, e.g.
// "http://localhost:8000"; the per-session path is derived from the auth
// provider on every call.
func New(baseURL string, sessions auth.Provider, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		sessions: sessions,
		http:     &http.Client{Timeout: timeout},
	}
}

// envelope is the common response wrapper: success plus one action-specific
// payload field.
type envelope struct {
	Success  bool                   `json:"success"`
	Error    string                 `json:"error"`
	Sections []model.Section        `json:"sections"`
	Teaching *model.TeachingContent `json:"teaching"`
	Grading  *model.GradingResult   `json:"grading"`
	Insights *model.InsightsSummary `json:"insights"`
	Assign   *assignment            `json:"assignment"`
}

type assignment struct {
	Section *model.Section `json:"section"`
}

// do posts one action-tagged request and decodes the envelope. Transport
// failures, non-2xx statuses and malformed bodies become TransportError;
// success:false becomes BackendError carrying the verbatim error string.
func (c *Client) do(ctx context.Context, req request) (*envelope, error) {
	action := req.action()

	body, err := marshalRequest(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", action, err)
	}

	session, err := c.sessions.CurrentSession(ctx)
	if err != nil {
		return nil, &model.TransportError{Op: action, Err: fmt.Errorf("resolve session: %w", err)}
	}

	url := fmt.Sprintf("%s/api/session/%s/practice", c.baseURL, session.ID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &model.TransportError{Op: action, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &model.TransportError{Op: action, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little of the body for the log, then discard.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.Warn("collaborator returned non-2xx",
			"action", action, "status", resp.StatusCode, "body", string(snippet))
		return nil, &model.TransportError{
			Op:  action,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &model.TransportError{Op: action, Err: fmt.Errorf("decode response: %w", err)}
	}

	if !env.Success {
		return nil, &model.BackendError{Action: action, Message: env.Error}
	}
	return &env, nil
}

// GetSections fetches the section list for the current filing.
func (c *Client) GetSections(ctx context.Context) ([]model.Section, error) {
	env, err := c.do(ctx, getSectionsRequest{})
	if err != nil {
		return nil, err
	}
	return env.Sections, nil
}

// Teach requests the SMAP walkthrough for one section.
func (c *Client) Teach(ctx context.Context, section model.Section) (model.TeachingContent, error) {
	env, err := c.do(ctx, teachRequest{Section: section})
	if err != nil {
		return model.TeachingContent{}, err
	}
	if env.Teaching == nil {
		return model.TeachingContent{}, &model.TransportError{Op: "teach_smap", Err: errors.New("response missing teaching payload")}
	}
	return *env.Teaching, nil
}

// Grade submits the four drafted fields for one section and returns the
// collaborator's verdict, normalized so the letter grade and all four
// component keys are always present.
func (c *Client) Grade(ctx context.Context, fields map[model.Component]string, section model.Section) (model.GradingResult, error) {
	env, err := c.do(ctx, gradeRequest{StudentSMAP: fields, Section: section})
	if err != nil {
		return model.GradingResult{}, err
	}
	if env.Grading == nil {
		return model.GradingResult{}, &model.TransportError{Op: "grade_submission", Err: errors.New("response missing grading payload")}
	}
	result := *env.Grading
	result.Normalize()
	return result, nil
}

// Insights asks the collaborator to summarize the session's graded history.
func (c *Client) Insights(ctx context.Context, history []model.HistoryEntry) (model.InsightsSummary, error) {
	if history == nil {
		history = []model.HistoryEntry{}
	}
	env, err := c.do(ctx, insightsRequest{SessionHistory: history})
	if err != nil {
		return model.InsightsSummary{}, err
	}
	if env.Insights == nil {
		return model.InsightsSummary{}, &model.TransportError{Op: "get_insights", Err: errors.New("response missing insights payload")}
	}
	return *env.Insights, nil
}

// AssignNext asks the collaborator to pick the next section to practice.
// A nil section with a nil error means everything available is completed.
func (c *Client) AssignNext(ctx context.Context, completed []string, available []model.Section) (*model.Section, error) {
	if completed == nil {
		completed = []string{}
	}
	if available == nil {
		available = []model.Section{}
	}
	env, err := c.do(ctx, assignNextRequest{CompletedSections: completed, AvailableSections: available})
	if err != nil {
		return nil, err
	}
	if env.Assign == nil {
		return nil, nil
	}
	return env.Assign.Section, nil
}

// Ping checks that the practice endpoint is reachable. A BackendError
// still means the service answered, so only transport failures count.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, getSectionsRequest{})
	var te *model.TransportError
	if errors.As(err, &te) {
		return err
	}
	return nil
}
