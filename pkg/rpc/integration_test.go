package rpc

import (
	"context"
	"net"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/shangsuru/verifiable-lockmanager/pkg/lockmanager"
	"github.com/shangsuru/verifiable-lockmanager/pkg/signer"
	"github.com/shangsuru/verifiable-lockmanager/pkg/types"
)

// dialServer brings up a real Manager behind a real Server, served over
// an in-memory bufconn listener, and returns a raw *grpc.ClientConn
// forced onto the same JSON codec — exercising the hand-written
// ServiceDesc and codec end to end without a real socket.
func dialServer(t *testing.T) (*grpc.ClientConn, *lockmanager.Manager) {
	t.Helper()

	kp, err := signer.Generate()
	require.NoError(t, err)

	mgr, err := lockmanager.New(lockmanager.Config{
		NumWorkerThreads:     3,
		LockTableSize:        16,
		TransactionTableSize: 4,
	}, kp, zerolog.Nop())
	require.NoError(t, err)
	mgr.Start()
	t.Cleanup(mgr.Stop)

	srv := NewServer(mgr, zerolog.Nop())
	lis := bufconn.Listen(1024 * 1024)
	go func() { _ = srv.grpc.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufconn",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(JSONCodec{})),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn, mgr
}

func TestRPCRegisterLockUnlockRoundTrip(t *testing.T) {
	conn, mgr := dialServer(t)
	ctx := context.Background()

	registerResp := new(RegisterTransactionResponse)
	err := conn.Invoke(ctx, "/"+serviceName+"/RegisterTransaction",
		&RegisterTransactionRequest{TransactionID: 1, LockBudget: 5}, registerResp)
	require.NoError(t, err)

	lockResp := new(LockResponse)
	err = conn.Invoke(ctx, "/"+serviceName+"/LockShared",
		&LockRequest{TransactionID: 1, RowID: 10, WaitForSignature: true}, lockResp)
	require.NoError(t, err)
	assert.NotEmpty(t, lockResp.Signature)
	assert.NoError(t, signer.Verify(mgr.PublicKey(), lockResp.Signature, 1, 10, types.Shared, 0))

	unlockResp := new(UnlockResponse)
	err = conn.Invoke(ctx, "/"+serviceName+"/Unlock",
		&UnlockRequest{TransactionID: 1, RowID: 10, WaitForSignature: true}, unlockResp)
	assert.NoError(t, err)
}

func TestRPCDuplicateRegisterIsCanceled(t *testing.T) {
	conn, _ := dialServer(t)
	ctx := context.Background()

	req := &RegisterTransactionRequest{TransactionID: 7, LockBudget: 1}
	require.NoError(t, conn.Invoke(ctx, "/"+serviceName+"/RegisterTransaction", req, new(RegisterTransactionResponse)))

	err := conn.Invoke(ctx, "/"+serviceName+"/RegisterTransaction", req, new(RegisterTransactionResponse))
	assert.Error(t, err)
}
