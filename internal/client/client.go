// Package client provides the HTTP client layer for communicating with the
// GridHive task-service REST API.
//
// This package wraps the Resty HTTP client with gridctl-specific
// functionality: request/response serialization, structured error parsing,
// debug logging through the session logger, and TLS client authentication
// using the user's proxy credential.
//
// ERROR CONTRACT:
// Every failed operation surfaces as one of two typed errors. A non-2xx
// answer from the service becomes a ServiceError carrying the HTTP status,
// the reason, and the X-Error-* diagnostic headers. A failure to reach the
// service at all becomes a TransportError carrying the transport's numeric
// error code. The failure translator maps both onto process exit codes, so
// the client never collapses them into plain strings.
//
// The client performs exactly one attempt per operation: the CLI makes one
// authoritative request and exits, leaving retries to the caller's judgment.
package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/gridhive-dev/gridctl/internal/config"
	"github.com/gridhive-dev/gridctl/internal/logging"
	"github.com/gridhive-dev/gridctl/internal/version"
)

// TaskSpec describes a task submission as read from the user's task file.
type TaskSpec struct {
	Name         string            `json:"name" yaml:"name"`
	Activity     string            `json:"activity,omitempty" yaml:"activity"`
	InputDataset string            `json:"inputDataset,omitempty" yaml:"inputDataset"`
	Parameters   map[string]string `json:"parameters,omitempty" yaml:"parameters"`
}

// TaskRef identifies a submitted task on the service side.
type TaskRef struct {
	Name      string `json:"name"`
	RequestID string `json:"requestId"`
}

// TaskStatus reports the service-side state of a task and its jobs.
type TaskStatus struct {
	Name        string         `json:"name"`
	State       string         `json:"state"`
	JobsByState map[string]int `json:"jobsByState,omitempty"`
	Message     string         `json:"message,omitempty"`
}

// Client is the task-service API client bound to one instance endpoint.
type Client struct {
	http    *resty.Client
	baseURL string
}

// New creates a client for the configured instance. When proxyFile is
// non-empty it is loaded as the TLS client identity (the proxy credential
// holds both certificate and key in one PEM file); a proxy that fails to
// load is reported at debug level and the client proceeds unauthenticated,
// letting the service answer with a structured authorization error.
func New(cfg *config.Config, sess *logging.Session, proxyFile string) *Client {
	c := newClient(fmt.Sprintf("https://%s/api/v1", cfg.Instance), cfg.Timeout, sess)

	if proxyFile != "" {
		cert, err := tls.LoadX509KeyPair(proxyFile, proxyFile)
		if err != nil {
			sess.Debug("failed to load proxy credential %s: %v", proxyFile, err)
		} else {
			c.http.SetCertificates(cert)
		}
	}

	return c
}

// newClient builds the Resty client for a fully formed base URL. Split from
// New so tests can point the client at an httptest server.
func newClient(baseURL string, timeoutSeconds int, sess *logging.Session) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(time.Duration(timeoutSeconds) * time.Second).
		SetHeader("User-Agent", "gridctl/"+version.Version).
		SetHeader("Accept", "application/json")

	// Request/response logging through the session logger
	httpClient.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		sess.Debug("making API request: %s %s", req.Method, req.URL)
		return nil
	})
	httpClient.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		sess.Debug("API response: %d %s (took %v)",
			resp.StatusCode(), resp.Status(), resp.Time())
		return nil
	})
	httpClient.OnError(func(req *resty.Request, err error) {
		sess.Debug("API request failed: %s %s - %v", req.Method, req.URL, err)
	})

	return &Client{
		http:    httpClient,
		baseURL: baseURL,
	}
}

// SubmitTask submits a new task and returns the service-side reference.
func (c *Client) SubmitTask(ctx context.Context, spec *TaskSpec) (*TaskRef, error) {
	var ref TaskRef

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(spec).
		SetResult(&ref).
		Post("/tasks")

	if err != nil {
		return nil, newTransportError(err)
	}
	if resp.IsError() {
		return nil, serviceErrorFrom(resp)
	}

	return &ref, nil
}

// TaskStatus fetches the current state of a task by name.
func (c *Client) TaskStatus(ctx context.Context, name string) (*TaskStatus, error) {
	var status TaskStatus

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&status).
		Get(fmt.Sprintf("/tasks/%s/status", name))

	if err != nil {
		return nil, newTransportError(err)
	}
	if resp.IsError() {
		return nil, serviceErrorFrom(resp)
	}

	return &status, nil
}

// KillTask requests termination of a task by name.
func (c *Client) KillTask(ctx context.Context, name string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("/tasks/%s", name))

	if err != nil {
		return newTransportError(err)
	}
	if resp.IsError() {
		return serviceErrorFrom(resp)
	}

	return nil
}

// serviceErrorFrom builds the structured ServiceError from a non-2xx answer,
// lifting the X-Error-* diagnostic headers the service reports failures with.
func serviceErrorFrom(resp *resty.Response) *ServiceError {
	reason := resp.Header().Get("X-Error-Reason")
	if reason == "" {
		reason = http.StatusText(resp.StatusCode())
	}

	url := ""
	reqData := ""
	if resp.Request != nil {
		url = resp.Request.URL
		reqData = fmt.Sprintf("%s %s", resp.Request.Method, resp.Request.URL)
		if resp.Request.Body != nil {
			reqData = fmt.Sprintf("%s %v", reqData, resp.Request.Body)
		}
	}

	return &ServiceError{
		Status:  resp.StatusCode(),
		Reason:  reason,
		Detail:  resp.Header().Get("X-Error-Detail"),
		Info:    resp.Header().Get("X-Error-Info"),
		ErrorID: resp.Header().Get("X-Error-Id"),
		URL:     url,
		ReqData: reqData,
		Result:  resp.String(),
	}
}
