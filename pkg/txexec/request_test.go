package txexec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namegate/namegate/pkg/errclass"
)

const validTarget = "0x1111111111111111111111111111111111111111"

func TestRequestValidate(t *testing.T) {
	goodAddr := "0x" + strings.Repeat("11", 20)

	tests := []struct {
		name    string
		req     *Request
		wantErr bool
	}{
		{
			name: "valid register",
			req:  NewRegisterRequest("alice", "QmImageHash", goodAddr),
		},
		{
			name:    "register with short address",
			req:     NewRegisterRequest("alice", "QmImageHash", "0x123"),
			wantErr: true,
		},
		{
			name:    "register without 0x prefix",
			req:     NewRegisterRequest("alice", "QmImageHash", strings.Repeat("11", 20)),
			wantErr: true,
		},
		{
			name:    "register with non-hex characters",
			req:     NewRegisterRequest("alice", "QmImageHash", "0x"+strings.Repeat("zz", 20)),
			wantErr: true,
		},
		{
			name:    "register with empty name",
			req:     NewRegisterRequest("", "QmImageHash", goodAddr),
			wantErr: true,
		},
		{
			name:    "register with empty image hash",
			req:     NewRegisterRequest("alice", "", goodAddr),
			wantErr: true,
		},
		{
			name: "valid update address",
			req:  NewUpdateAddressRequest("alice", goodAddr),
		},
		{
			name:    "update address with empty target",
			req:     NewUpdateAddressRequest("alice", ""),
			wantErr: true,
		},
		{
			name: "valid update image",
			req:  NewUpdateImageRequest("alice", "QmNewImage"),
		},
		{
			name:    "update image with empty hash",
			req:     NewUpdateImageRequest("alice", ""),
			wantErr: true,
		},
		{
			name: "valid transfer",
			req:  NewTransferRequest("alice", goodAddr),
		},
		{
			name:    "transfer to malformed owner",
			req:     NewTransferRequest("alice", "not-an-address"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			kind, ok := errclass.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, errclass.InvalidArgument, kind)
		})
	}
}

func TestRequestsGetDistinctIDs(t *testing.T) {
	a := NewUpdateImageRequest("alice", "QmA")
	b := NewUpdateImageRequest("alice", "QmA")
	assert.NotEqual(t, a.ID, b.ID)
}

func TestRequestSlotDefaultsToOperation(t *testing.T) {
	req := NewTransferRequest("alice", validTarget)
	assert.Equal(t, string(OpTransferName), req.Slot)
}

func TestUnknownOperationFailsValidation(t *testing.T) {
	req := &Request{Op: Op("burnName"), Name: "alice"}
	err := req.Validate()
	kind, ok := errclass.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, errclass.InvalidArgument, kind)
}
