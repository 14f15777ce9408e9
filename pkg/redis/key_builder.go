package redis

import "strings"

// KeyBuilder helps build Redis keys according to our naming convention:
// namespace:context:key.
type KeyBuilder struct {
	namespace string
	context   string
}

// NewKeyBuilder creates a new KeyBuilder with the given namespace and context.
func NewKeyBuilder(namespace, context string) *KeyBuilder {
	return &KeyBuilder{
		namespace: strings.ToLower(namespace),
		context:   strings.ToLower(context),
	}
}

// Build prefixes the given parts with the namespace and context. Empty parts are skipped.
func (kb *KeyBuilder) Build(parts ...string) string {
	all := make([]string, 0, len(parts)+2)
	for _, p := range append([]string{kb.namespace, kb.context}, parts...) {
		if p != "" {
			all = append(all, p)
		}
	}
	return strings.Join(all, ":")
}
