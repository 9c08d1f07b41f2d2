package cache

// ScopedKeyer wraps a Keyer with a prefix so that several stores can share
// one backend without colliding.
//
//	staging := NewScopedKeyer(NewDefaultKeyer(), "staging:")
//	staging.DocumentKey("42") // "staging:doc:42"
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// A nil inner keyer falls back to the default layout.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// DocumentKey generates a prefixed document key.
func (k *ScopedKeyer) DocumentKey(id string) string {
	return k.prefix + k.inner.DocumentKey(id)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(id, format string) string {
	return k.prefix + k.inner.ArtifactKey(id, format)
}
