package juju

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/juju/errors"
)

// DialOptions is everything Connect needs to open a controller API
// connection for a single model.
type DialOptions struct {
	// Addrs is the controller API address to dial (host:port).
	Addrs    string
	ModelTag string
	Username string
	Password string

	// InsecureSkipVerify disables TLS certificate verification, matching
	// how a Juju client falls back to an unverified connection against a
	// controller whose CA cert isn't locally known yet.
	InsecureSkipVerify bool

	DialTimeout time.Duration
}

// rpcRequest and rpcResponse mirror the shape of Juju's JSON-RPC-over-
// websocket wire protocol: every call is a Type/Request/Version/Id/Params
// envelope, and every reply echoes the same RequestId with either a
// Response or an Error.
type rpcRequest struct {
	RequestID int    `json:"request-id"`
	Type      string `json:"type"`
	Version   int    `json:"version"`
	ID        string `json:"id,omitempty"`
	Request   string `json:"request"`
	Params    any    `json:"params,omitempty"`
}

type rpcError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *rpcError) Error() string { return e.Message }

type rpcResponse struct {
	RequestID int             `json:"request-id"`
	Response  json.RawMessage `json:"response"`
	Error     *rpcError       `json:"error"`
}

// wsAPICaller implements APICaller over a single long-lived websocket
// connection, matching one request to one response by request-id the way
// every github.com/juju/juju/api facade client does under the hood.
type wsAPICaller struct {
	conn *websocket.Conn

	nextID int64

	mu      sync.Mutex
	pending map[int]chan rpcResponse
	closed  chan struct{}

	facadeVersions map[string]int
}

// Connect dials opts.Addrs, logs in as opts.Username/opts.Password against
// opts.ModelTag, and returns a ready-to-use APICaller plus a Close func.
func Connect(ctx context.Context, opts DialOptions) (*wsAPICaller, func() error, error) {
	dialer := &websocket.Dialer{
		TLSClientConfig:  &tls.Config{InsecureSkipVerify: opts.InsecureSkipVerify}, //nolint:gosec
		HandshakeTimeout: opts.DialTimeout,
	}
	endpoint := (&url.URL{
		Scheme: "wss",
		Host:   opts.Addrs,
		Path:   fmt.Sprintf("/model/%s/api", opts.ModelTag),
	}).String()

	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, nil, errors.Annotatef(err, "dial %s", endpoint)
	}

	caller := &wsAPICaller{
		conn:           conn,
		pending:        make(map[int]chan rpcResponse),
		closed:         make(chan struct{}),
		facadeVersions: make(map[string]int),
	}
	go caller.readLoop()

	var loginResult struct {
		FacadeVersions map[string][]int `json:"facade-versions"`
	}
	if err := caller.APICall(ctx, "Admin", 3, "", "Login", struct {
		AuthTag     string `json:"auth-tag"`
		Credentials string `json:"credentials"`
	}{AuthTag: opts.Username, Credentials: opts.Password}, &loginResult); err != nil {
		_ = conn.Close()
		return nil, nil, errors.Annotate(err, "login")
	}
	for facade, versions := range loginResult.FacadeVersions {
		if len(versions) > 0 {
			caller.facadeVersions[facade] = versions[len(versions)-1]
		}
	}

	return caller, caller.close, nil
}

func (c *wsAPICaller) close() error {
	select {
	case <-c.closed:
		return nil
	default:
		close(c.closed)
	}
	return c.conn.Close()
}

// readLoop dispatches every incoming frame to whichever APICall is waiting
// on its request-id; it exits (and every pending call fails) once the
// connection drops.
func (c *wsAPICaller) readLoop() {
	for {
		var resp rpcResponse
		if err := c.conn.ReadJSON(&resp); err != nil {
			c.mu.Lock()
			for id, ch := range c.pending {
				close(ch)
				delete(c.pending, id)
			}
			c.mu.Unlock()
			return
		}
		c.mu.Lock()
		ch, ok := c.pending[resp.RequestID]
		if ok {
			delete(c.pending, resp.RequestID)
		}
		c.mu.Unlock()
		if ok {
			ch <- resp
		}
	}
}

// BestFacadeVersion reports the highest version the controller's Login
// response advertised for facade, or 0 if the facade wasn't offered.
func (c *wsAPICaller) BestFacadeVersion(facade string) int {
	return c.facadeVersions[facade]
}

// APICall sends one request and blocks for its matching response, or until
// ctx is done or the connection drops.
func (c *wsAPICaller) APICall(ctx context.Context, objType string, version int, id, request string, params, result any) error {
	reqID := int(atomic.AddInt64(&c.nextID, 1))
	wait := make(chan rpcResponse, 1)

	c.mu.Lock()
	c.pending[reqID] = wait
	c.mu.Unlock()

	req := rpcRequest{RequestID: reqID, Type: objType, Version: version, ID: id, Request: request, Params: params}
	if err := c.conn.WriteJSON(req); err != nil {
		c.mu.Lock()
		delete(c.pending, reqID)
		c.mu.Unlock()
		return errors.Annotatef(err, "send %s.%s", objType, request)
	}

	select {
	case resp, ok := <-wait:
		if !ok {
			return errors.Errorf("connection closed while waiting for %s.%s", objType, request)
		}
		if resp.Error != nil {
			return resp.Error
		}
		if result == nil || len(resp.Response) == 0 {
			return nil
		}
		return json.Unmarshal(resp.Response, result)
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, reqID)
		c.mu.Unlock()
		return ctx.Err()
	}
}
