package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// Deployments serving several clients from one Redis instance give each
// client its own namespace:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "client:abc123:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// SpecKey generates a prefixed key for geometry spec caching.
func (k *ScopedKeyer) SpecKey(inputHash string, opts SpecKeyOpts) string {
	return k.prefix + k.inner.SpecKey(inputHash, opts)
}

// MeshKey generates a prefixed key for assembled mesh caching.
func (k *ScopedKeyer) MeshKey(specHash string, opts MeshKeyOpts) string {
	return k.prefix + k.inner.MeshKey(specHash, opts)
}
