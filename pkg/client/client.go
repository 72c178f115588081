// Package client is a thin gRPC client SDK for the lock manager's
// four-method RPC surface, mirroring the dial-then-wrap shape of the
// teacher's client package but without its certificate plumbing — the
// trust boundary here is the ECDSA attestation returned by a lock
// grant, not the transport, so callers that want to verify a lock
// still need to pair this SDK with signer.Verify and the manager's
// public key obtained out of band.
package client

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/shangsuru/verifiable-lockmanager/pkg/rpc"
)

const callTimeout = 10 * time.Second

// Client wraps a gRPC connection to a lock manager server.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to a lock manager server at addr.
func Dial(addr string) (*Client, error) {
	conn, err := grpc.NewClient(
		addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(rpc.JSONCodec{})),
	)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// RegisterTransaction registers a new transaction with the given lock
// budget.
func (c *Client) RegisterTransaction(tid, budget uint32) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	req := &rpc.RegisterTransactionRequest{TransactionID: tid, LockBudget: budget}
	resp := new(rpc.RegisterTransactionResponse)
	return c.conn.Invoke(ctx, "/lockmanager.LockManager/RegisterTransaction", req, resp)
}

// LockShared requests a shared lock on rid for tid, returning the signed
// attestation on success.
func (c *Client) LockShared(tid, rid uint32) (string, error) {
	return c.lock(tid, rid, "/lockmanager.LockManager/LockShared")
}

// LockExclusive requests an exclusive lock on rid for tid, returning the
// signed attestation on success.
func (c *Client) LockExclusive(tid, rid uint32) (string, error) {
	return c.lock(tid, rid, "/lockmanager.LockManager/LockExclusive")
}

func (c *Client) lock(tid, rid uint32, method string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	req := &rpc.LockRequest{TransactionID: tid, RowID: rid, WaitForSignature: true}
	resp := new(rpc.LockResponse)
	if err := c.conn.Invoke(ctx, method, req, resp); err != nil {
		return "", err
	}
	return resp.Signature, nil
}

// Unlock releases rid for tid.
func (c *Client) Unlock(tid, rid uint32) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	req := &rpc.UnlockRequest{TransactionID: tid, RowID: rid, WaitForSignature: true}
	resp := new(rpc.UnlockResponse)
	return c.conn.Invoke(ctx, "/lockmanager.LockManager/Unlock", req, resp)
}
