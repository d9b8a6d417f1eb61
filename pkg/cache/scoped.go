package cache

// ScopedKeyer prefixes every key of an inner Keyer, so several projects can
// share one backend without colliding.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "project:acme:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner. A nil inner means [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// SourceKey implements Keyer.
func (k *ScopedKeyer) SourceKey(layoutHash string, opts SourceKeyOpts) string {
	return k.prefix + k.inner.SourceKey(layoutHash, opts)
}

// OutlineKey implements Keyer.
func (k *ScopedKeyer) OutlineKey(layoutHash string) string {
	return k.prefix + k.inner.OutlineKey(layoutHash)
}
