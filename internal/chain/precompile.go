// Package chain holds static per-network capability tables.
package chain

// Chain ids with a RIP-7212 secp256r1 verification precompile. The list is
// deployment configuration, not protocol; extend it via options as networks
// ship the precompile.
const (
	ChainPolygon     uint64 = 137
	ChainPolygonAmoy uint64 = 80002
)

// Capabilities answers whether a network carries the cheaper secp256r1
// verification precompile. Unknown chains fall back to the general-purpose
// Solidity verifier. Cost estimation and real signing must consult the same
// instance so gas assumptions line up.
type Capabilities struct {
	p256Precompiles map[uint64]bool
}

// Option overrides an entry in the capability table.
type Option func(*Capabilities)

// WithP256Precompile marks a chain as supporting (or not supporting) the
// secp256r1 precompile.
func WithP256Precompile(chainID uint64, supported bool) Option {
	return func(c *Capabilities) {
		c.p256Precompiles[chainID] = supported
	}
}

// NewCapabilities builds a capability table from the defaults plus overrides.
func NewCapabilities(opts ...Option) *Capabilities {
	c := &Capabilities{
		p256Precompiles: map[uint64]bool{
			ChainPolygon:     true,
			ChainPolygonAmoy: true,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SupportsP256Precompile reports whether signatures for the chain may take the
// precompiled verification path.
func (c *Capabilities) SupportsP256Precompile(chainID uint64) bool {
	return c.p256Precompiles[chainID]
}
