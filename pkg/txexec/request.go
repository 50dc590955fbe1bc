package txexec

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/namegate/namegate/pkg/errclass"
)

// Op names a state-changing registry operation. The value doubles as the
// contract method name.
type Op string

const (
	OpRegisterName  Op = "registerName"
	OpUpdateAddress Op = "updateAddress"
	OpUpdateImage   Op = "updateImage"
	OpTransferName  Op = "transferName"
)

var validate = validator.New()

// Request is one state-changing operation plus its arguments. Immutable once
// submitted; a retry is a fresh Request, never a resubmission of the same
// one.
//
// For OpRegisterName the caller is responsible for having probed
// availability beforehand; the executor forwards the request without
// re-checking.
type Request struct {
	ID   uuid.UUID
	Op   Op
	Slot string // logical action slot, at most one in-flight request each

	Name      string
	ImageHash string
	Target    string
}

func newRequest(op Op, name string) *Request {
	return &Request{
		ID:   uuid.New(),
		Op:   op,
		Slot: string(op),
		Name: name,
	}
}

// NewRegisterRequest registers name with a profile image and target address.
func NewRegisterRequest(name, imageHash, target string) *Request {
	r := newRequest(OpRegisterName, name)
	r.ImageHash = imageHash
	r.Target = target
	return r
}

// NewUpdateAddressRequest repoints name at a new target address.
func NewUpdateAddressRequest(name, target string) *Request {
	r := newRequest(OpUpdateAddress, name)
	r.Target = target
	return r
}

// NewUpdateImageRequest replaces name's profile image.
func NewUpdateImageRequest(name, imageHash string) *Request {
	r := newRequest(OpUpdateImage, name)
	r.ImageHash = imageHash
	return r
}

// NewTransferRequest transfers ownership of name to a new owner.
func NewTransferRequest(name, newOwner string) *Request {
	r := newRequest(OpTransferName, name)
	r.Target = newOwner
	return r
}

// Validate checks the argument set before submission. Failures are
// InvalidArgument errors naming the offending field; a request that fails
// validation never reaches the wallet.
func (r *Request) Validate() error {
	if r.Name == "" {
		return errclass.New(errclass.InvalidArgument, "name must not be empty")
	}

	switch r.Op {
	case OpRegisterName:
		if r.ImageHash == "" {
			return errclass.New(errclass.InvalidArgument, "imageHash must not be empty")
		}
		return r.validateTarget("target")
	case OpUpdateAddress:
		return r.validateTarget("target")
	case OpUpdateImage:
		if r.ImageHash == "" {
			return errclass.New(errclass.InvalidArgument, "imageHash must not be empty")
		}
		return nil
	case OpTransferName:
		return r.validateTarget("newOwner")
	default:
		return errclass.New(errclass.InvalidArgument, fmt.Sprintf("unknown operation %q", r.Op))
	}
}

func (r *Request) validateTarget(field string) error {
	if err := validate.Var(r.Target, "required,eth_addr"); err != nil {
		return errclass.Wrap(errclass.InvalidArgument,
			fmt.Sprintf("%s must be a 0x-prefixed 20-byte hex address", field), err)
	}
	return nil
}

// callArgs maps the request onto the contract method's argument list. Only
// valid after Validate has passed.
func (r *Request) callArgs() []any {
	switch r.Op {
	case OpRegisterName:
		return []any{r.Name, r.ImageHash, common.HexToAddress(r.Target)}
	case OpUpdateAddress:
		return []any{r.Name, common.HexToAddress(r.Target)}
	case OpUpdateImage:
		return []any{r.Name, r.ImageHash}
	case OpTransferName:
		return []any{r.Name, common.HexToAddress(r.Target)}
	}
	return nil
}
