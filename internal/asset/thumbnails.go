package asset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"hoard-go/internal/model"
)

// Thumbnail entries inside a version sidecar.
const (
	ThumbnailsDir = "thumbnails"
	PosterFile    = "poster"
)

var thumbnailPattern = regexp.MustCompile(`^(.+)\.([0-9]+)\.([^.]+)$`)

// ParseThumbnailName extracts the frame number from "<asset>.<frame>.<ext>".
func ParseThumbnailName(assetName, fileName string) (int, error) {
	m := thumbnailPattern.FindStringSubmatch(fileName)
	if m == nil || m[1] != assetName {
		return 0, fmt.Errorf("%w: %q, expected %s.<frame>.<ext>", model.ErrInvalidThumbnailName, fileName, assetName)
	}
	frame, err := strconv.Atoi(m[2])
	if err != nil || frame < 1 {
		return 0, fmt.Errorf("%w: %q has frame %q", model.ErrInvalidThumbnailName, fileName, m[2])
	}
	return frame, nil
}

// resolveThumbnailVersion maps version 0 to the newest sealed version.
func (a *Asset) resolveThumbnailVersion(v model.VersionID) (model.VersionID, error) {
	if v == model.AssetScope {
		latest, err := a.LatestSealed()
		if err != nil {
			return 0, err
		}
		if latest == 0 {
			return 0, fmt.Errorf("%w: %s has no sealed version", model.ErrVersionNotFound, a.name)
		}
		return latest, nil
	}
	if !a.HasVersion(v) {
		return 0, fmt.Errorf("%w: %s", model.ErrVersionNotFound, v)
	}
	return v, nil
}

// AddThumbnails stores thumbnail files for version v (0 selects the newest
// sealed version). Without merge the existing set is replaced. The
// resulting frames must run contiguously from 1. A poster greater than 0
// selects the poster frame; otherwise the current poster is kept if it is
// still part of the set and the first frame is used if not.
func (a *Asset) AddThumbnails(v model.VersionID, paths []string, merge bool, poster int) (model.VersionID, error) {
	v, err := a.resolveThumbnailVersion(v)
	if err != nil {
		return 0, err
	}

	incoming := make(map[int]string, len(paths))
	for _, p := range paths {
		frame, err := ParseThumbnailName(a.name, filepath.Base(p))
		if err != nil {
			return 0, err
		}
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			return 0, fmt.Errorf("%w: %s", model.ErrPathNotFound, p)
		}
		if _, dup := incoming[frame]; dup {
			return 0, fmt.Errorf("%w: frame %d given twice", model.ErrInvalidThumbnailName, frame)
		}
		incoming[frame] = p
	}

	existing := map[int]string{}
	if merge {
		current, err := a.Thumbnails(v)
		if err != nil {
			return 0, err
		}
		for _, t := range current {
			existing[t.Frame] = t.Path
		}
	}

	frames := make(map[int]bool, len(existing)+len(incoming))
	for f := range existing {
		frames[f] = true
	}
	for f := range incoming {
		frames[f] = true
	}
	for f := 1; f <= len(frames); f++ {
		if !frames[f] {
			return 0, fmt.Errorf("%w: frame %d is missing", model.ErrThumbnailFramesNotContiguous, f)
		}
	}
	if poster > 0 && !frames[poster] {
		return 0, fmt.Errorf("%w: %d", model.ErrPosterFrameNotFound, poster)
	}

	thumbDir := filepath.Join(a.SidecarDir(v), ThumbnailsDir)
	if !merge {
		if err := os.RemoveAll(thumbDir); err != nil {
			return 0, fmt.Errorf("clearing thumbnails: %w", err)
		}
	}

	for frame, src := range incoming {
		if old, ok := existing[frame]; ok {
			if err := os.Remove(old); err != nil && !errors.Is(err, os.ErrNotExist) {
				return 0, fmt.Errorf("replacing frame %d: %w", frame, err)
			}
		}
		sum, _, err := a.hasher.File(src)
		if err != nil {
			return 0, err
		}
		payload := a.path(ThumbnailDataDir, sum)
		if err := os.MkdirAll(filepath.Dir(payload), 0755); err != nil {
			return 0, fmt.Errorf("creating thumbnail store: %w", err)
		}
		if err := a.storePayload(payload, src, sum, false); err != nil {
			return 0, err
		}
		if err := a.linkPayload(payload, filepath.Join(thumbDir, filepath.Base(src))); err != nil {
			return 0, fmt.Errorf("linking frame %d: %w", frame, err)
		}
	}

	current, err := a.posterFrame(v)
	if err != nil {
		return 0, err
	}
	switch {
	case poster > 0:
		current = poster
	case current == 0 || !frames[current]:
		current = 0
		if len(frames) > 0 {
			current = 1
		}
	}
	if err := a.writePoster(v, current); err != nil {
		return 0, err
	}
	if err := a.collectThumbnailPayloads(); err != nil {
		return 0, err
	}
	return v, nil
}

// DeleteThumbnails removes the thumbnail set and poster of version v.
func (a *Asset) DeleteThumbnails(v model.VersionID) (model.VersionID, error) {
	v, err := a.resolveThumbnailVersion(v)
	if err != nil {
		return 0, err
	}
	if err := os.RemoveAll(filepath.Join(a.SidecarDir(v), ThumbnailsDir)); err != nil {
		return 0, fmt.Errorf("deleting thumbnails: %w", err)
	}
	if err := a.writePoster(v, 0); err != nil {
		return 0, err
	}
	if err := a.collectThumbnailPayloads(); err != nil {
		return 0, err
	}
	return v, nil
}

// Thumbnails lists the thumbnails of version v ordered by frame.
func (a *Asset) Thumbnails(v model.VersionID) ([]model.Thumbnail, error) {
	v, err := a.resolveThumbnailVersion(v)
	if err != nil {
		return nil, err
	}
	thumbDir := filepath.Join(a.SidecarDir(v), ThumbnailsDir)
	entries, err := os.ReadDir(thumbDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing thumbnails: %w", err)
	}

	var out []model.Thumbnail
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		frame, err := ParseThumbnailName(a.name, e.Name())
		if err != nil {
			continue
		}
		out = append(out, model.Thumbnail{Frame: frame, Path: filepath.Join(thumbDir, e.Name())})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Frame < out[j].Frame })
	return out, nil
}

// SetPoster selects the poster frame of version v.
func (a *Asset) SetPoster(v model.VersionID, frame int) (model.VersionID, error) {
	v, err := a.resolveThumbnailVersion(v)
	if err != nil {
		return 0, err
	}
	thumbs, err := a.Thumbnails(v)
	if err != nil {
		return 0, err
	}
	for _, t := range thumbs {
		if t.Frame == frame {
			return v, a.writePoster(v, frame)
		}
	}
	return 0, fmt.Errorf("%w: %d", model.ErrPosterFrameNotFound, frame)
}

// Poster returns the poster thumbnail of version v, or nil when the version
// has no thumbnails.
func (a *Asset) Poster(v model.VersionID) (*model.Thumbnail, error) {
	v, err := a.resolveThumbnailVersion(v)
	if err != nil {
		return nil, err
	}
	frame, err := a.posterFrame(v)
	if err != nil || frame == 0 {
		return nil, err
	}
	thumbs, err := a.Thumbnails(v)
	if err != nil {
		return nil, err
	}
	for _, t := range thumbs {
		if t.Frame == frame {
			return &t, nil
		}
	}
	return nil, nil
}

func (a *Asset) posterFrame(v model.VersionID) (int, error) {
	data, err := os.ReadFile(filepath.Join(a.SidecarDir(v), PosterFile))
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading poster: %w", err)
	}
	frame, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parsing poster of %s: %w", v, err)
	}
	return frame, nil
}

func (a *Asset) writePoster(v model.VersionID, frame int) error {
	posterPath := filepath.Join(a.SidecarDir(v), PosterFile)
	if frame == 0 {
		if err := os.Remove(posterPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("clearing poster: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(a.SidecarDir(v), 0755); err != nil {
		return fmt.Errorf("creating version sidecar: %w", err)
	}
	if err := writeBytes(posterPath, []byte(strconv.Itoa(frame)+"\n")); err != nil {
		return fmt.Errorf("writing poster: %w", err)
	}
	return nil
}
