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

func (c *Client) call(method string, req, resp any) error {
	return c.client.Call(ServiceName+"."+method, req, resp)
}

// RunOnce queues a manual run.
func (c *Client) RunOnce() (*RunOnceResponse, error) {
	var resp RunOnceResponse
	if err := c.call("RunOnce", RunOnceRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call("Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History lists history records newest first. A zero limit returns all.
func (c *Client) History(limit int) (*HistoryResponse, error) {
	var resp HistoryResponse
	if err := c.call("History", HistoryRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteHistory removes a history record by unique key.
func (c *Client) DeleteHistory(key, apiKey string) (*DeleteHistoryResponse, error) {
	var resp DeleteHistoryResponse
	if err := c.call("DeleteHistory", DeleteHistoryRequest{Key: key, APIKey: apiKey}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClearProcessed wipes the processed-key set.
func (c *Client) ClearProcessed() (*ClearProcessedResponse, error) {
	var resp ClearProcessedResponse
	if err := c.call("ClearProcessed", ClearProcessedRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Subscriptions lists the local registry.
func (c *Client) Subscriptions() (*SubscriptionsResponse, error) {
	var resp SubscriptionsResponse
	if err := c.call("Subscriptions", SubscriptionsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RemoveSubscription drops a registry row by id.
func (c *Client) RemoveSubscription(id string) (*RemoveSubscriptionResponse, error) {
	var resp RemoveSubscriptionResponse
	if err := c.call("RemoveSubscription", RemoveSubscriptionRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.call("TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
