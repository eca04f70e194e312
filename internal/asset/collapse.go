package asset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"hoard-go/internal/model"
)

// Collapse reduces the asset to its newest sealed version. Unsealed slots
// newer than it are in-flight publishes and are kept.
//
// Pins other than LATEST that target a removed version block the collapse
// unless removePins is set; then they are deleted regardless of their lock,
// except CURRENT which is moved to the kept version.
func (a *Asset) Collapse(removePins bool) (*model.CollapseResult, error) {
	kept, err := a.LatestSealed()
	if err != nil {
		return nil, err
	}
	if kept == 0 {
		return nil, fmt.Errorf("%w: %s has no sealed version to keep", model.ErrVersionNotFound, a.name)
	}

	ids, err := a.VersionIDs()
	if err != nil {
		return nil, err
	}
	result := &model.CollapseResult{Kept: kept}
	removed := make(map[model.VersionID]bool)
	for _, v := range ids {
		if v < kept {
			removed[v] = true
			result.RemovedVersions = append(result.RemovedVersions, v)
		}
	}

	pins, err := a.Pins()
	if err != nil {
		return nil, err
	}
	var blocking []model.Pin
	for _, p := range pins {
		if p.Name != model.PinLatest && removed[p.Version] {
			blocking = append(blocking, p)
		}
	}
	if len(blocking) > 0 && !removePins {
		names := make([]string, 0, len(blocking))
		for _, p := range blocking {
			names = append(names, fmt.Sprintf("%s->%s", p.Name, p.Version))
		}
		return nil, fmt.Errorf("%w: %s", model.ErrPinsBlockCollapse, strings.Join(names, ", "))
	}

	for _, p := range blocking {
		if p.Name == model.PinCurrent {
			if err := a.writePin(model.Pin{Name: p.Name, Version: kept, Locked: p.Locked}); err != nil {
				return nil, err
			}
			result.MovedPins = append(result.MovedPins, p.Name)
			continue
		}
		if err := a.removePin(p.Name); err != nil {
			return nil, err
		}
		result.RemovedPins = append(result.RemovedPins, p.Name)
	}

	for _, v := range result.RemovedVersions {
		if err := a.removeVersionDirs(v); err != nil {
			return nil, err
		}
	}
	if err := a.CollectGarbage(); err != nil {
		return nil, err
	}
	if err := a.UpdateLatest(); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteVersion removes version v and any payload only it referenced. A
// version targeted by a pin other than LATEST cannot be deleted.
func (a *Asset) DeleteVersion(v model.VersionID) error {
	if !a.HasVersion(v) {
		return fmt.Errorf("%w: %s", model.ErrVersionNotFound, v)
	}

	pins, err := a.Pins()
	if err != nil {
		return err
	}
	var names []string
	for _, p := range pins {
		if p.Name != model.PinLatest && p.Version == v {
			names = append(names, p.Name)
		}
	}
	if len(names) > 0 {
		return fmt.Errorf("%w: %s is pinned by %s", model.ErrVersionPinned, v, strings.Join(names, ", "))
	}

	if err := a.removeVersionDirs(v); err != nil {
		return err
	}
	if err := a.CollectGarbage(); err != nil {
		return err
	}
	return a.UpdateLatest()
}

func (a *Asset) removeVersionDirs(v model.VersionID) error {
	// The sidecar goes first so a half removed version reads as unsealed.
	if err := os.RemoveAll(a.SidecarDir(v)); err != nil {
		return fmt.Errorf("removing sidecar of %s: %w", v, err)
	}
	if err := os.RemoveAll(a.VersionDir(v)); err != nil {
		return fmt.Errorf("removing %s: %w", v, err)
	}
	return nil
}

// CollectGarbage deletes payloads that no remaining version references.
// Unsealed versions keep their payloads alive through their links.
func (a *Asset) CollectGarbage() error {
	if err := a.collectDataPayloads(); err != nil {
		return err
	}
	return a.collectThumbnailPayloads()
}

func (a *Asset) collectDataPayloads() error {
	ids, err := a.VersionIDs()
	if err != nil {
		return err
	}
	live := make(map[string]bool)
	var linked []string
	for _, v := range ids {
		m, err := a.readManifest(v)
		if err != nil {
			return err
		}
		if m != nil {
			for d := range m.Digests() {
				live[d] = true
			}
			continue
		}
		linked = append(linked, a.VersionDir(v))
	}
	return a.sweep(DataDir, live, linked)
}

func (a *Asset) collectThumbnailPayloads() error {
	ids, err := a.VersionIDs()
	if err != nil {
		return err
	}
	var linked []string
	for _, v := range ids {
		linked = append(linked, filepath.Join(a.SidecarDir(v), ThumbnailsDir))
	}
	return a.sweep(ThumbnailDataDir, map[string]bool{}, linked)
}

// sweep removes every payload in storeDir that is neither named in live nor
// linked from a file below one of the linked directories.
func (a *Asset) sweep(storeDir string, live map[string]bool, linked []string) error {
	entries, err := os.ReadDir(a.path(storeDir))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("listing %s: %w", storeDir, err)
	}

	var candidates []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || live[e.Name()] {
			continue
		}
		candidates = append(candidates, e.Name())
	}
	if len(candidates) == 0 {
		return nil
	}

	referenced, err := a.referencedPayloads(storeDir, candidates, linked)
	if err != nil {
		return err
	}
	sort.Strings(candidates)
	for _, name := range candidates {
		if referenced[name] {
			continue
		}
		if err := os.Remove(a.path(storeDir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing payload %s: %w", name, err)
		}
	}
	return nil
}

// referencedPayloads walks the linked directories and reports which
// candidate payloads are still reachable by hard link or symlink.
func (a *Asset) referencedPayloads(storeDir string, candidates, linked []string) (map[string]bool, error) {
	infos := make(map[string]os.FileInfo, len(candidates))
	for _, name := range candidates {
		info, err := os.Stat(a.path(storeDir, name))
		if err != nil {
			continue
		}
		infos[name] = info
	}

	referenced := make(map[string]bool)
	for _, dir := range linked {
		err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return nil
				}
				return err
			}
			if d.IsDir() {
				return nil
			}
			info, err := os.Stat(p)
			if err != nil {
				return nil
			}
			for name, pinfo := range infos {
				if os.SameFile(info, pinfo) {
					referenced[name] = true
				}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", dir, err)
		}
	}
	return referenced, nil
}
