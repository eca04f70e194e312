package hoard

import (
	"fmt"

	"hoard-go/internal/model"
)

// SetPin points a pin at the version ref names. It reports whether the pin moved.
func (s *Service) SetPin(u model.URI, name, ref string) (bool, error) {
	a, err := s.openAsset(u)
	if err != nil {
		return false, err
	}
	v, err := a.ResolveVersion(ref)
	if err != nil {
		return false, err
	}
	changed, err := a.SetPin(name, v)
	if err != nil {
		return false, fmt.Errorf("setting pin %s of %s: %w", name, u, err)
	}
	if !changed {
		return false, nil
	}
	s.logger.Info("pin set", "uri", u.String(), "pin", name, "version", v.String())
	return true, a.AppendLog("pin %s set to %s", model.NormalizeName(name), v)
}

// DeletePin removes a pin that must currently point at the version expected names.
func (s *Service) DeletePin(u model.URI, name, expected string) error {
	a, err := s.openAsset(u)
	if err != nil {
		return err
	}
	v, err := model.ParseVersion(expected)
	if err != nil {
		return err
	}
	if err := a.DeletePin(name, v); err != nil {
		return fmt.Errorf("deleting pin %s of %s: %w", name, u, err)
	}
	s.logger.Info("pin deleted", "uri", u.String(), "pin", name)
	return a.AppendLog("pin %s deleted from %s", model.NormalizeName(name), v)
}

// LockPin prevents a pin from being moved or deleted.
func (s *Service) LockPin(u model.URI, name string) error {
	a, err := s.openAsset(u)
	if err != nil {
		return err
	}
	if err := a.LockPin(name); err != nil {
		return fmt.Errorf("locking pin %s of %s: %w", name, u, err)
	}
	return a.AppendLog("pin %s locked", model.NormalizeName(name))
}

// UnlockPin releases a pin lock.
func (s *Service) UnlockPin(u model.URI, name string) error {
	a, err := s.openAsset(u)
	if err != nil {
		return err
	}
	if err := a.UnlockPin(name); err != nil {
		return fmt.Errorf("unlocking pin %s of %s: %w", name, u, err)
	}
	return a.AppendLog("pin %s unlocked", model.NormalizeName(name))
}

// Pins returns every pin of an asset, sorted by name.
func (s *Service) Pins(u model.URI) ([]model.Pin, error) {
	a, err := s.openAsset(u)
	if err != nil {
		return nil, err
	}
	return a.Pins()
}

// Pin returns one pin, or nil when it does not exist.
func (s *Service) Pin(u model.URI, name string) (*model.Pin, error) {
	a, err := s.openAsset(u)
	if err != nil {
		return nil, err
	}
	return a.Pin(name)
}
