package contract

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// registryABIJSON is the fixed call interface of the name registry.
const registryABIJSON = `[
  {"inputs":[{"name":"name","type":"string"}],"name":"isNameAvailable","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"name","type":"string"}],"name":"resolveName","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"owner","type":"address"}],"name":"getNamesOwnedBy","outputs":[{"name":"","type":"string[]"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"name","type":"string"}],"name":"getImage","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"contractOwner","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"name","type":"string"},{"name":"imageHash","type":"string"},{"name":"target","type":"address"}],"name":"registerName","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"name","type":"string"},{"name":"newTarget","type":"address"}],"name":"updateAddress","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"name","type":"string"},{"name":"imageHash","type":"string"}],"name":"updateImage","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"name","type":"string"},{"name":"newOwner","type":"address"}],"name":"transferName","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

var (
	registryABIOnce sync.Once
	registryABI     abi.ABI
)

// RegistryABI returns the parsed registry interface. The ABI string is a
// compile-time constant, so a parse failure is a programming error.
func RegistryABI() abi.ABI {
	registryABIOnce.Do(func() {
		parsed, err := abi.JSON(strings.NewReader(registryABIJSON))
		if err != nil {
			panic("contract: invalid registry ABI: " + err.Error())
		}
		registryABI = parsed
	})
	return registryABI
}
