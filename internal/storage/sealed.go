package storage

import "registration-wizard/internal/encryption"

// Sealed encrypts values before they reach the inner provider. A value that
// fails to open is reported as an error, never returned as data.
type Sealed struct {
	inner  Provider
	sealer *encryption.Sealer
}

func NewSealed(inner Provider, sealer *encryption.Sealer) *Sealed {
	return &Sealed{inner: inner, sealer: sealer}
}

func (s *Sealed) Get(key string) (string, bool, error) {
	raw, ok, err := s.inner.Get(key)
	if err != nil || !ok {
		return "", ok, err
	}
	plain, err := s.sealer.Open(raw, key)
	if err != nil {
		return "", false, err
	}
	return plain, true, nil
}

func (s *Sealed) Set(key, value string) error {
	sealed, err := s.sealer.Seal(value, key)
	if err != nil {
		return err
	}
	return s.inner.Set(key, sealed)
}

func (s *Sealed) Delete(key string) error {
	return s.inner.Delete(key)
}
