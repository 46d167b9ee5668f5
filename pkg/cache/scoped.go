package cache

// ScopedKeyer wraps a Keyer with a prefix, giving callers that share one
// backend separate namespaces.
//
//	perGarden := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "garden:"+id+":")
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

// PlanKey generates a prefixed plan key.
func (k *ScopedKeyer) PlanKey(gardenHash, plantsHash string, opts PlanKeyOpts) string {
	return k.prefix + k.inner.PlanKey(gardenHash, plantsHash, opts)
}

// DecomposeKey generates a prefixed decomposition key.
func (k *ScopedKeyer) DecomposeKey(gardenHash, plantsHash string) string {
	return k.prefix + k.inner.DecomposeKey(gardenHash, plantsHash)
}
