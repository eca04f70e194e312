package asset

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"hoard-go/internal/model"
)

// pinFile is the on-disk form of a pin, one file per pin under .pins.
type pinFile struct {
	Version model.VersionID `yaml:"version"`
	Locked  bool            `yaml:"locked"`
}

func (a *Asset) pinPath(name string) string {
	return a.path(PinsDir, name)
}

// readPin returns nil when the pin does not exist.
func (a *Asset) readPin(name string) (*model.Pin, error) {
	var pf pinFile
	err := readYAML(a.pinPath(name), &pf)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading pin %s: %w", name, err)
	}
	return &model.Pin{Name: name, Version: pf.Version, Locked: pf.Locked}, nil
}

func (a *Asset) writePin(p model.Pin) error {
	if err := os.MkdirAll(a.path(PinsDir), 0755); err != nil {
		return fmt.Errorf("creating pins directory: %w", err)
	}
	if err := writeYAML(a.pinPath(p.Name), pinFile{Version: p.Version, Locked: p.Locked}); err != nil {
		return fmt.Errorf("writing pin %s: %w", p.Name, err)
	}
	return nil
}

func (a *Asset) removePin(name string) error {
	if err := os.Remove(a.pinPath(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing pin %s: %w", name, err)
	}
	return nil
}

// Pin returns the named pin, or nil when it does not exist.
func (a *Asset) Pin(name string) (*model.Pin, error) {
	n, err := model.ValidatePinName(name)
	if err != nil {
		return nil, err
	}
	return a.readPin(n)
}

// Pins lists every pin sorted by name.
func (a *Asset) Pins() ([]model.Pin, error) {
	entries, err := os.ReadDir(a.path(PinsDir))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing pins: %w", err)
	}

	var pins []model.Pin
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		p, err := a.readPin(e.Name())
		if err != nil {
			return nil, err
		}
		if p != nil {
			pins = append(pins, *p)
		}
	}
	sort.Slice(pins, func(i, j int) bool { return pins[i].Name < pins[j].Name })
	return pins, nil
}

// SetPin points name at version v and reports whether anything changed.
// LATEST is managed by the asset and cannot be set. A locked pin refuses
// even when it already points at v. Moving an unlocked pin is unconditional.
func (a *Asset) SetPin(name string, v model.VersionID) (bool, error) {
	n, err := model.ValidatePinName(name)
	if err != nil {
		return false, err
	}
	if n == model.PinLatest {
		return false, fmt.Errorf("%w: %s is managed automatically", model.ErrReservedName, n)
	}
	if !a.IsSealed(v) {
		return false, fmt.Errorf("%w: %s", model.ErrVersionNotFound, v)
	}

	existing, err := a.readPin(n)
	if err != nil {
		return false, err
	}
	if existing != nil {
		if existing.Locked {
			return false, fmt.Errorf("%w: %s", model.ErrPinLocked, n)
		}
		if existing.Version == v {
			return false, nil
		}
	}

	if err := a.writePin(model.Pin{Name: n, Version: v}); err != nil {
		return false, err
	}
	return true, nil
}

// DeletePin removes name after checking that it still points at expected.
// LATEST and CURRENT cannot be deleted.
func (a *Asset) DeletePin(name string, expected model.VersionID) error {
	n, err := model.ValidatePinName(name)
	if err != nil {
		return err
	}
	if n == model.PinLatest || n == model.PinCurrent {
		return fmt.Errorf("%w: %s cannot be deleted", model.ErrReservedName, n)
	}

	p, err := a.readPin(n)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("%w: %s", model.ErrPinNotFound, n)
	}
	if p.Locked {
		return fmt.Errorf("%w: %s", model.ErrPinLocked, n)
	}
	if p.Version != expected {
		return fmt.Errorf("%w: %s points at %s, not %s", model.ErrVersionMismatch, n, p.Version, expected)
	}
	return a.removePin(n)
}

// LockPin locks name. Locking a locked pin is a no-op.
func (a *Asset) LockPin(name string) error {
	return a.setLocked(name, true)
}

// UnlockPin unlocks name. Unlocking an unlocked pin is a no-op.
func (a *Asset) UnlockPin(name string) error {
	return a.setLocked(name, false)
}

func (a *Asset) setLocked(name string, locked bool) error {
	n, err := model.ValidatePinName(name)
	if err != nil {
		return err
	}
	if n == model.PinLatest {
		return fmt.Errorf("%w: %s is managed automatically", model.ErrReservedName, n)
	}

	p, err := a.readPin(n)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("%w: %s", model.ErrPinNotFound, n)
	}
	if p.Locked == locked {
		return nil
	}
	p.Locked = locked
	return a.writePin(*p)
}

// UpdateLatest points LATEST at the newest sealed version, or removes it
// when no version is sealed.
func (a *Asset) UpdateLatest() error {
	latest, err := a.LatestSealed()
	if err != nil {
		return err
	}
	if latest == 0 {
		return a.removePin(model.PinLatest)
	}

	current, err := a.readPin(model.PinLatest)
	if err != nil {
		return err
	}
	if current != nil && current.Version == latest {
		return nil
	}
	return a.writePin(model.Pin{Name: model.PinLatest, Version: latest})
}

// ResolveVersion turns "v0003", "3" or a pin name into a version.
func (a *Asset) ResolveVersion(ref string) (model.VersionID, error) {
	if v, err := model.ParseVersion(ref); err == nil {
		if !a.HasVersion(v) {
			return 0, fmt.Errorf("%w: %s", model.ErrVersionNotFound, v)
		}
		return v, nil
	}

	p, err := a.Pin(ref)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is neither a version nor a pin", model.ErrInvalidVersion, ref)
	}
	if p == nil {
		return 0, fmt.Errorf("%w: %s", model.ErrPinNotFound, strings.ToUpper(ref))
	}
	return p.Version, nil
}
