package netmanager

import (
	"net/netip"

	"github.com/google/btree"
	"github.com/pkg/errors"
	"github.com/trungams/simple-cloud/utilities/constants"
)

// Pools larger than a /16 are refused, enumerating the host addresses of
// anything bigger is not worth the memory.
const maxPoolBits = 16

// AddressPool hands out the host addresses of a subnet lowest-first. The
// network and broadcast addresses are never part of the pool. Callers are
// expected to serialize access.
type AddressPool struct {
	subnet    netip.Prefix
	broadcast netip.Addr
	free      *btree.BTreeG[netip.Addr]
}

func NewAddressPool(subnet netip.Prefix) (*AddressPool, error) {
	subnet = subnet.Masked()
	if !subnet.Addr().Is4() {
		return nil, errors.New(constants.AddressPoolError + "subnet must be IPv4")
	}
	if subnet.Bits() < 32-maxPoolBits {
		return nil, errors.Errorf(constants.AddressPoolError+"subnet %s is larger than a /16", subnet)
	}

	pool := &AddressPool{
		subnet: subnet,
		free:   btree.NewG[netip.Addr](2, func(a, b netip.Addr) bool { return a.Less(b) }),
	}
	for addr := subnet.Addr().Next(); subnet.Contains(addr); addr = addr.Next() {
		pool.free.ReplaceOrInsert(addr)
	}
	// the highest address is the broadcast
	if max, ok := pool.free.Max(); ok {
		pool.broadcast = max
		pool.free.Delete(max)
	}
	return pool, nil
}

// Next pops the lowest free address.
func (p *AddressPool) Next() (netip.Addr, error) {
	addr, ok := p.free.Min()
	if !ok {
		return netip.Addr{}, errors.Errorf(constants.AddressPoolError+"no free addresses left in %s", p.subnet)
	}
	p.free.Delete(addr)
	return addr, nil
}

// Reserve removes a specific address from the pool, reporting whether it
// was free.
func (p *AddressPool) Reserve(addr netip.Addr) bool {
	_, ok := p.free.Delete(addr)
	return ok
}

// Release returns an address to the pool. Addresses outside the subnet are
// ignored and double releases are no-ops.
func (p *AddressPool) Release(addr netip.Addr) {
	if !p.subnet.Contains(addr) {
		return
	}
	if addr == p.subnet.Addr() || addr == p.broadcast {
		return
	}
	p.free.ReplaceOrInsert(addr)
}

func (p *AddressPool) Contains(addr netip.Addr) bool {
	return p.subnet.Contains(addr)
}

func (p *AddressPool) Free() int {
	return p.free.Len()
}
