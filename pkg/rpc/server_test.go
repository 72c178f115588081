package rpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/shangsuru/verifiable-lockmanager/pkg/types"
)

func TestToStatusCollapsesClassifiedErrorsToCanceled(t *testing.T) {
	err := toStatus(types.NewError(types.ErrBudgetExhausted, "no budget left"))
	st, ok := status.FromError(err)
	assert.True(t, ok)
	assert.Equal(t, codes.Canceled, st.Code())
}

func TestToStatusFallsBackToInternalForUnclassifiedError(t *testing.T) {
	err := toStatus(assert.AnError)
	st, ok := status.FromError(err)
	assert.True(t, ok)
	assert.Equal(t, codes.Internal, st.Code())
}
