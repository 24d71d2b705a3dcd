package cache

// ScopedKeyer prefixes every key of an inner keyer, so that several
// servers can share one Redis without seeing each other's entries.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "railsim:staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer if inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) RunKey(scenarioHash string, opts RunKeyOpts) string {
	return k.prefix + k.inner.RunKey(scenarioHash, opts)
}
