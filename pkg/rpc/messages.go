package rpc

// RegisterTransactionRequest is the wire request for RegisterTransaction.
type RegisterTransactionRequest struct {
	TransactionID uint32 `json:"transaction_id"`
	LockBudget    uint32 `json:"lock_budget"`
}

// RegisterTransactionResponse carries no fields beyond status; present
// for symmetry with the other methods and future extension.
type RegisterTransactionResponse struct{}

// LockRequest is the shared wire request for LockShared and LockExclusive.
type LockRequest struct {
	TransactionID    uint32 `json:"transaction_id"`
	RowID            uint32 `json:"row_id"`
	WaitForSignature bool   `json:"wait_for_signature"`
}

// LockResponse carries the signed attestation on success.
type LockResponse struct {
	Signature string `json:"signature"`
}

// UnlockRequest is the wire request for Unlock.
type UnlockRequest struct {
	TransactionID    uint32 `json:"transaction_id"`
	RowID            uint32 `json:"row_id"`
	WaitForSignature bool   `json:"wait_for_signature"`
}

// UnlockResponse carries no fields beyond status.
type UnlockResponse struct{}
