// Package storage holds the persistence providers a registration store
// writes its blob through. Every provider is synchronous.
package storage

import "errors"

var (
	ErrInvalidKey  = errors.New("invalid storage key")
	ErrUnavailable = errors.New("storage unavailable")
)

// Provider is the get/set/delete contract of browser-local storage.
// Get reports absence with ok=false and a nil error.
type Provider interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
}

// Prefixed namespaces every key, e.g. per session
type Prefixed struct {
	inner  Provider
	prefix string
}

func NewPrefixed(inner Provider, prefix string) *Prefixed {
	return &Prefixed{inner: inner, prefix: prefix}
}

func (p *Prefixed) Get(key string) (string, bool, error) {
	return p.inner.Get(p.prefix + key)
}

func (p *Prefixed) Set(key, value string) error {
	return p.inner.Set(p.prefix+key, value)
}

func (p *Prefixed) Delete(key string) error {
	return p.inner.Delete(p.prefix + key)
}
