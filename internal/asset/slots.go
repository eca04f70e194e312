package asset

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"hoard-go/internal/model"
)

// ReserveVersion claims the next unused version number.
//
// The slot is won by creating its directory with os.Mkdir, which fails when
// another publisher created it first; the loser rescans and tries the next
// number. The returned version is unsealed until Seal is called.
func (a *Asset) ReserveVersion() (model.VersionID, error) {
	for attempt := 0; attempt <= a.retryBudget; attempt++ {
		highest, err := a.highestVersion()
		if err != nil {
			return 0, err
		}
		if highest >= model.MaxVersion {
			return 0, fmt.Errorf("%w: %s holds %d versions", model.ErrSlotExhausted, a.name, model.MaxVersion)
		}

		next := highest + 1
		err = os.Mkdir(a.VersionDir(next), 0755)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("creating version directory: %w", err)
		}

		if err := os.MkdirAll(a.SidecarDir(next), 0755); err != nil {
			return 0, fmt.Errorf("creating version sidecar: %w", err)
		}
		return next, nil
	}
	return 0, fmt.Errorf("%w: lost %d slot races on %s", model.ErrAllocationFailed, a.retryBudget+1, a.name)
}

// VersionIDs lists every version directory, sealed or not, in ascending order.
func (a *Asset) VersionIDs() ([]model.VersionID, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}

	var versions []model.VersionID
	for _, e := range entries {
		if !e.IsDir() || !model.IsVersionDirName(e.Name()) {
			continue
		}
		v, err := model.ParseVersion(e.Name())
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions, nil
}

func (a *Asset) highestVersion() (model.VersionID, error) {
	versions, err := a.VersionIDs()
	if err != nil {
		return 0, err
	}
	if len(versions) == 0 {
		return 0, nil
	}
	return versions[len(versions)-1], nil
}

// HasVersion reports whether the directory of version v exists.
func (a *Asset) HasVersion(v model.VersionID) bool {
	if !v.Valid() {
		return false
	}
	info, err := os.Stat(a.VersionDir(v))
	return err == nil && info.IsDir()
}

// Versions summarizes every version with its seal state and the pins that
// target it.
func (a *Asset) Versions() ([]model.VersionInfo, error) {
	ids, err := a.VersionIDs()
	if err != nil {
		return nil, err
	}
	pins, err := a.Pins()
	if err != nil {
		return nil, err
	}

	byVersion := make(map[model.VersionID][]string)
	for _, p := range pins {
		byVersion[p.Version] = append(byVersion[p.Version], p.Name)
	}

	out := make([]model.VersionInfo, 0, len(ids))
	for _, v := range ids {
		out = append(out, model.VersionInfo{
			Version: v,
			Sealed:  a.IsSealed(v),
			Pins:    byVersion[v],
		})
	}
	return out, nil
}
