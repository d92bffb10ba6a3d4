// Package gateway implements the protocol driver for the campus portal
// authentication server.
//
// A login is two sequential round-trips: resolve the client's externally
// visible IP via the gateway's lookup endpoint, then submit credentials,
// carrier channel, and that IP to the login endpoint. The login body is a
// JSON document transmitted in the gateway's required legacy GBK encoding,
// not UTF-8.
//
// The client is stateless and performs no retries; retry policy belongs to
// the daemon. Failures come back as [Result] values, never as raised
// errors crossing this boundary.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/nuistin/nuistind/internal/store"
)

// Endpoint paths on the gateway, relative to the base URL.
const (
	ipPath    = "/api/v1/ip"
	loginPath = "/api/v1/login"
)

// Fixed payload fields pinning the authentication flow. The gateway's own
// auto-login flag is always sent disabled: this daemon implements
// auto-login itself.
const (
	pageSign    = "secondauth"
	ifAutoLogin = "0"
)

// okCode is the application-level success code in gateway responses.
const okCode = 200

// maxResponseBytes caps how much of a gateway response body is read.
const maxResponseBytes = 1 << 20 // 1 MiB

// Client drives the two-step login sequence against one gateway.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
}

// NewClient creates a Client for the gateway at baseURL with the given
// per-request timeout. RetryMax is zero: the shared transport comes from
// retryablehttp but each Login step performs exactly one request.
func NewClient(baseURL string, timeout time.Duration) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 0
	rc.HTTPClient.Timeout = timeout
	rc.Logger = nil // suppress retryablehttp's default logging
	// Never retry and never swallow a response: a non-2xx status must reach
	// the caller as a protocol outcome, not vanish into a retry loop.
	rc.CheckRetry = func(_ context.Context, _ *http.Response, err error) (bool, error) {
		return false, err
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    rc,
	}
}

// ///////////////////////////////////////////////
// Wire Types
// ///////////////////////////////////////////////

// ipResponse is the body of the IP lookup endpoint.
type ipResponse struct {
	Code int     `json:"code"`
	Data *string `json:"data"`
}

// loginRequest is the body of the login endpoint, transmitted GBK-encoded.
type loginRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Channel     string `json:"channel"`
	UsrIPAdd    string `json:"usripadd"`
	PageSign    string `json:"pagesign"`
	IfAutoLogin string `json:"ifautologin"`
}

// loginResponse is the body of the login endpoint. Only the application
// code matters; the remaining fields vary by carrier and are ignored.
type loginResponse struct {
	Code int `json:"code"`
}

// ///////////////////////////////////////////////
// Login
// ///////////////////////////////////////////////

// Login performs one full login attempt for the account. It is synchronous
// from the caller's perspective and terminates in exactly one [Result].
func (c *Client) Login(ctx context.Context, a store.Account) Result {
	channel := a.Carrier.Channel()
	if channel == "" {
		return Result{Outcome: InternalError, Err: fmt.Errorf("unknown carrier %q", a.Carrier)}
	}

	addr, res := c.resolveIP(ctx)
	if res.Outcome != Succeeded {
		return res
	}

	return c.submitLogin(ctx, a, channel, addr)
}

// resolveIP queries the gateway for the client's externally visible IP.
func (c *Client) resolveIP(ctx context.Context) (string, Result) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+ipPath, nil)
	if err != nil {
		return "", Result{Outcome: InternalError, Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", Result{Outcome: IPResolutionFailed}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", classifyTransport(err)
	}

	var ip ipResponse
	if err := json.Unmarshal(body, &ip); err != nil {
		return "", Result{Outcome: InternalError, Err: fmt.Errorf("parsing ip response: %w", err)}
	}
	if ip.Code != okCode || ip.Data == nil || *ip.Data == "" {
		return "", Result{Outcome: IPResolutionFailed}
	}

	return *ip.Data, Result{Outcome: Succeeded}
}

// submitLogin posts the credentials, channel, and resolved IP to the login
// endpoint with the gateway's required GBK body encoding.
func (c *Client) submitLogin(ctx context.Context, a store.Account, channel, addr string) Result {
	payload, err := json.Marshal(loginRequest{
		Username:    a.ID,
		Password:    a.Password,
		Channel:     channel,
		UsrIPAdd:    addr,
		PageSign:    pageSign,
		IfAutoLogin: ifAutoLogin,
	})
	if err != nil {
		return Result{Outcome: InternalError, Err: err}
	}

	encoded, err := simplifiedchinese.GBK.NewEncoder().Bytes(payload)
	if err != nil {
		return Result{Outcome: InternalError, Err: fmt.Errorf("encoding login body: %w", err)}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, bytes.NewReader(encoded))
	if err != nil {
		return Result{Outcome: InternalError, Err: err}
	}
	req.Header.Set("Content-Type", "application/json; charset=GBK")

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{Outcome: GatewayRejected}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return classifyTransport(err)
	}

	var lr loginResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return Result{Outcome: InternalError, Err: fmt.Errorf("parsing login response: %w", err)}
	}
	if lr.Code != okCode {
		return Result{Outcome: GatewayRejected}
	}

	return Result{Outcome: Succeeded}
}

// classifyTransport maps a transport error to [TimedOut] or
// [InternalError]. Timeouts get their own outcome so the daemon can treat
// a slow gateway differently from a broken one.
func classifyTransport(err error) Result {
	if isTimeout(err) {
		return Result{Outcome: TimedOut, Err: err}
	}
	return Result{Outcome: InternalError, Err: err}
}

// isTimeout reports whether err is a deadline or network timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
