// Package registry maps event signature hashes of configured contracts to their
// decoding metadata. A Registry is built once at startup and is read-only afterward.
package registry

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"vaultIndexer/internal/contracts"
	"vaultIndexer/internal/model"
)

// ErrSignatureCollision is returned when two contracts declare the same
// signature hash for events of different shape.
var ErrSignatureCollision = errors.New("event signature collision")

// Entry describes one decodable event.
type Entry struct {
	Contract  string
	Event     abi.Event
	Kind      model.Kind
	HasKind   bool
	Signature string
}

// Registry resolves (address, topic0) pairs to entries.
type Registry struct {
	byHash      map[common.Hash]*Entry
	byAddress   map[common.Address]string
	contractSet map[common.Address]map[common.Hash]struct{}
	addresses   []common.Address
}

// New builds a Registry from resolved contracts.
func New(cs []contracts.Contract) (*Registry, error) {
	r := &Registry{
		byHash:      make(map[common.Hash]*Entry),
		byAddress:   make(map[common.Address]string, len(cs)),
		contractSet: make(map[common.Address]map[common.Hash]struct{}, len(cs)),
	}

	for _, c := range cs {
		if _, ok := r.byAddress[c.Address]; ok {
			return nil, fmt.Errorf("contract %s: duplicate address %s", c.Name, c.Address.Hex())
		}
		r.byAddress[c.Address] = c.Name
		r.addresses = append(r.addresses, c.Address)
		hashes := make(map[common.Hash]struct{}, len(c.ABI.Events))

		for _, event := range c.ABI.Events {
			if event.Anonymous {
				continue
			}
			if existing, ok := r.byHash[event.ID]; ok {
				if !sameShape(existing.Event, event) {
					return nil, fmt.Errorf("%w: %s declares %s and %s declares %s (%s)",
						ErrSignatureCollision, existing.Contract, describe(existing.Event), c.Name, describe(event), event.ID.Hex())
				}
				hashes[event.ID] = struct{}{}
				continue
			}

			kind, hasKind := model.KindFromEventName(event.RawName)
			r.byHash[event.ID] = &Entry{
				Contract:  c.Name,
				Event:     event,
				Kind:      kind,
				HasKind:   hasKind,
				Signature: event.Sig,
			}
			hashes[event.ID] = struct{}{}
		}
		r.contractSet[c.Address] = hashes
	}

	return r, nil
}

// Lookup returns the entry for a log emitted by address with the given topic0.
// Unconfigured addresses and unknown hashes return false.
func (r *Registry) Lookup(address common.Address, topic0 common.Hash) (*Entry, bool) {
	hashes, ok := r.contractSet[address]
	if !ok {
		return nil, false
	}
	if _, ok := hashes[topic0]; !ok {
		return nil, false
	}
	entry, ok := r.byHash[topic0]
	return entry, ok
}

// ContractName returns the configured name for an address.
func (r *Registry) ContractName(address common.Address) (string, bool) {
	name, ok := r.byAddress[address]
	return name, ok
}

// Addresses returns the configured contract addresses in configuration order.
func (r *Registry) Addresses() []common.Address {
	out := make([]common.Address, len(r.addresses))
	copy(out, r.addresses)
	return out
}

// Len returns the number of distinct signature hashes.
func (r *Registry) Len() int {
	return len(r.byHash)
}

// Listing is a flattened registry row for display.
type Listing struct {
	Contract string
	Address  common.Address
	Name     string
	Hash     common.Hash
	Kind     model.Kind
}

// List returns every (contract, event) pair sorted by contract then event name.
func (r *Registry) List() []Listing {
	out := make([]Listing, 0, len(r.byHash))
	for _, address := range r.addresses {
		for hash := range r.contractSet[address] {
			entry := r.byHash[hash]
			out = append(out, Listing{
				Contract: r.byAddress[address],
				Address:  address,
				Name:     entry.Event.RawName,
				Hash:     hash,
				Kind:     entry.Kind,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Contract != out[j].Contract {
			return out[i].Contract < out[j].Contract
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func sameShape(a, b abi.Event) bool {
	if a.RawName != b.RawName || len(a.Inputs) != len(b.Inputs) {
		return false
	}
	for i := range a.Inputs {
		if a.Inputs[i].Indexed != b.Inputs[i].Indexed {
			return false
		}
		if a.Inputs[i].Type.String() != b.Inputs[i].Type.String() {
			return false
		}
	}
	return true
}

func describe(event abi.Event) string {
	out := event.RawName + "("
	for i, input := range event.Inputs {
		if i > 0 {
			out += ","
		}
		out += input.Type.String()
		if input.Indexed {
			out += " indexed"
		}
	}
	return out + ")"
}
