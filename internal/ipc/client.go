package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// SessionStart begins a capture session on the daemon.
func (c *Client) SessionStart(req SessionStartRequest) (*SessionStartResponse, error) {
	var resp SessionStartResponse
	if err := c.client.Call("Glimpse.SessionStart", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SessionStop stops a capture session on the daemon.
func (c *Client) SessionStop(sessionID string) (*SessionStopResponse, error) {
	var resp SessionStopResponse
	if err := c.client.Call("Glimpse.SessionStop", SessionStopRequest{SessionID: sessionID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Sessions lists active capture sessions.
func (c *Client) Sessions() (*SessionsResponse, error) {
	var resp SessionsResponse
	if err := c.client.Call("Glimpse.Sessions", SessionsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Glimpse.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ingest runs an existing image through the dedup decision.
func (c *Client) Ingest(req IngestRequest) (*IngestResponse, error) {
	var resp IngestResponse
	if err := c.client.Call("Glimpse.Ingest", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecordsList returns stored captures.
func (c *Client) RecordsList(req RecordsListRequest) (*RecordsListResponse, error) {
	var resp RecordsListResponse
	if err := c.client.Call("Glimpse.RecordsList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecordsClear removes all captures for a session.
func (c *Client) RecordsClear(sessionID string) (*RecordsClearResponse, error) {
	var resp RecordsClearResponse
	if err := c.client.Call("Glimpse.RecordsClear", RecordsClearRequest{SessionID: sessionID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecordsStats aggregates stored capture counts per session.
func (c *Client) RecordsStats() (*RecordsStatsResponse, error) {
	var resp RecordsStatsResponse
	if err := c.client.Call("Glimpse.RecordsStats", RecordsStatsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DatabaseHealth retrieves detailed database diagnostics.
func (c *Client) DatabaseHealth() (*DatabaseHealthResponse, error) {
	var resp DatabaseHealthResponse
	if err := c.client.Call("Glimpse.DatabaseHealth", DatabaseHealthRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
