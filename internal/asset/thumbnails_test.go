package asset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"hoard-go/internal/model"
)

// writeThumbs writes thumbnail files with the given names and returns their paths.
func writeThumbs(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.WriteFile(p, []byte("jpeg:"+n), 0644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	return paths
}

func frames(thumbs []model.Thumbnail) []int {
	var out []int
	for _, th := range thumbs {
		out = append(out, th.Frame)
	}
	return out
}

func TestParseThumbnailName(t *testing.T) {
	tests := []struct {
		file    string
		want    int
		wantErr bool
	}{
		{file: "hero.1.jpg", want: 1},
		{file: "hero.0012.png", want: 12},
		{file: "hero.v2.1.jpg", wantErr: true},
		{file: "villain.1.jpg", wantErr: true},
		{file: "hero.jpg", wantErr: true},
		{file: "hero.0.jpg", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			got, err := ParseThumbnailName("hero", tt.file)
			if tt.wantErr {
				if !errors.Is(err, model.ErrInvalidThumbnailName) {
					t.Errorf("ParseThumbnailName() error = %v, want ErrInvalidThumbnailName", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseThumbnailName() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseThumbnailName() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAddThumbnails(t *testing.T) {
	t.Run("defaults poster to first frame", func(t *testing.T) {
		a := newTestAsset(t)
		v := publish(t, a, map[string]string{"a.txt": "A"}, true)

		got, err := a.AddThumbnails(0, writeThumbs(t, "hero.1.jpg", "hero.2.jpg"), false, 0)
		if err != nil {
			t.Fatalf("AddThumbnails() error = %v", err)
		}
		if got != v {
			t.Errorf("AddThumbnails() resolved %s, want %s", got, v)
		}

		thumbs, err := a.Thumbnails(v)
		if err != nil {
			t.Fatalf("Thumbnails() error = %v", err)
		}
		if f := frames(thumbs); len(f) != 2 || f[0] != 1 || f[1] != 2 {
			t.Errorf("frames = %v, want [1 2]", f)
		}

		poster, err := a.Poster(v)
		if err != nil || poster == nil {
			t.Fatalf("Poster() = %v, %v", poster, err)
		}
		if poster.Frame != 1 {
			t.Errorf("poster frame = %d, want 1", poster.Frame)
		}
	})

	t.Run("merge extends the set", func(t *testing.T) {
		a := newTestAsset(t)
		v := publish(t, a, map[string]string{"a.txt": "A"}, true)
		if _, err := a.AddThumbnails(v, writeThumbs(t, "hero.1.jpg"), false, 0); err != nil {
			t.Fatal(err)
		}
		if _, err := a.AddThumbnails(v, writeThumbs(t, "hero.2.jpg", "hero.3.jpg"), true, 3); err != nil {
			t.Fatalf("AddThumbnails(merge) error = %v", err)
		}
		thumbs, _ := a.Thumbnails(v)
		if len(thumbs) != 3 {
			t.Errorf("got %d thumbnails, want 3", len(thumbs))
		}
		poster, _ := a.Poster(v)
		if poster == nil || poster.Frame != 3 {
			t.Errorf("poster = %+v, want frame 3", poster)
		}
	})

	t.Run("replace drops the old set", func(t *testing.T) {
		a := newTestAsset(t)
		v := publish(t, a, map[string]string{"a.txt": "A"}, true)
		if _, err := a.AddThumbnails(v, writeThumbs(t, "hero.1.jpg", "hero.2.jpg"), false, 2); err != nil {
			t.Fatal(err)
		}
		if _, err := a.AddThumbnails(v, writeThumbs(t, "hero.1.png"), false, 0); err != nil {
			t.Fatal(err)
		}
		thumbs, _ := a.Thumbnails(v)
		if len(thumbs) != 1 || filepath.Base(thumbs[0].Path) != "hero.1.png" {
			t.Errorf("thumbnails = %+v, want only hero.1.png", thumbs)
		}
		poster, _ := a.Poster(v)
		if poster == nil || poster.Frame != 1 {
			t.Errorf("poster = %+v, want frame 1", poster)
		}
	})

	t.Run("rejects gaps", func(t *testing.T) {
		a := newTestAsset(t)
		v := publish(t, a, map[string]string{"a.txt": "A"}, true)
		_, err := a.AddThumbnails(v, writeThumbs(t, "hero.1.jpg", "hero.3.jpg"), false, 0)
		if !errors.Is(err, model.ErrThumbnailFramesNotContiguous) {
			t.Errorf("AddThumbnails() error = %v, want ErrThumbnailFramesNotContiguous", err)
		}
	})

	t.Run("rejects foreign names", func(t *testing.T) {
		a := newTestAsset(t)
		v := publish(t, a, map[string]string{"a.txt": "A"}, true)
		_, err := a.AddThumbnails(v, writeThumbs(t, "villain.1.jpg"), false, 0)
		if !errors.Is(err, model.ErrInvalidThumbnailName) {
			t.Errorf("AddThumbnails() error = %v, want ErrInvalidThumbnailName", err)
		}
	})

	t.Run("rejects missing files", func(t *testing.T) {
		a := newTestAsset(t)
		v := publish(t, a, map[string]string{"a.txt": "A"}, true)
		_, err := a.AddThumbnails(v, []string{filepath.Join(t.TempDir(), "hero.1.jpg")}, false, 0)
		if !errors.Is(err, model.ErrPathNotFound) {
			t.Errorf("AddThumbnails() error = %v, want ErrPathNotFound", err)
		}
	})

	t.Run("rejects unknown poster", func(t *testing.T) {
		a := newTestAsset(t)
		v := publish(t, a, map[string]string{"a.txt": "A"}, true)
		_, err := a.AddThumbnails(v, writeThumbs(t, "hero.1.jpg"), false, 4)
		if !errors.Is(err, model.ErrPosterFrameNotFound) {
			t.Errorf("AddThumbnails() error = %v, want ErrPosterFrameNotFound", err)
		}
	})

	t.Run("latest without sealed versions", func(t *testing.T) {
		a := newTestAsset(t)
		_, err := a.AddThumbnails(0, writeThumbs(t, "hero.1.jpg"), false, 0)
		if !errors.Is(err, model.ErrVersionNotFound) {
			t.Errorf("AddThumbnails() error = %v, want ErrVersionNotFound", err)
		}
	})
}

func TestThumbnails_Dedup(t *testing.T) {
	a := newTestAsset(t)
	v1 := publish(t, a, map[string]string{"a.txt": "A"}, true)
	v2 := publish(t, a, map[string]string{"a.txt": "B"}, true)

	dir := t.TempDir()
	p := filepath.Join(dir, "hero.1.jpg")
	if err := os.WriteFile(p, []byte("same frame"), 0644); err != nil {
		t.Fatal(err)
	}
	for _, v := range []model.VersionID{v1, v2} {
		if _, err := a.AddThumbnails(v, []string{p}, false, 0); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := os.ReadDir(filepath.Join(a.Dir(), ThumbnailDataDir))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("%s holds %d payloads, want 1", ThumbnailDataDir, len(entries))
	}
}

func TestSetPoster(t *testing.T) {
	a := newTestAsset(t)
	v := publish(t, a, map[string]string{"a.txt": "A"}, true)
	if _, err := a.AddThumbnails(v, writeThumbs(t, "hero.1.jpg", "hero.2.jpg"), false, 0); err != nil {
		t.Fatal(err)
	}

	if _, err := a.SetPoster(v, 2); err != nil {
		t.Fatalf("SetPoster() error = %v", err)
	}
	poster, _ := a.Poster(v)
	if poster == nil || poster.Frame != 2 {
		t.Errorf("poster = %+v, want frame 2", poster)
	}

	if _, err := a.SetPoster(v, 9); !errors.Is(err, model.ErrPosterFrameNotFound) {
		t.Errorf("SetPoster(9) error = %v, want ErrPosterFrameNotFound", err)
	}
}

func TestDeleteThumbnails(t *testing.T) {
	a := newTestAsset(t)
	v := publish(t, a, map[string]string{"a.txt": "A"}, true)
	if _, err := a.AddThumbnails(v, writeThumbs(t, "hero.1.jpg"), false, 0); err != nil {
		t.Fatal(err)
	}

	if _, err := a.DeleteThumbnails(v); err != nil {
		t.Fatalf("DeleteThumbnails() error = %v", err)
	}
	thumbs, err := a.Thumbnails(v)
	if err != nil {
		t.Fatalf("Thumbnails() error = %v", err)
	}
	if len(thumbs) != 0 {
		t.Errorf("Thumbnails() = %v, want none", thumbs)
	}
	if poster, _ := a.Poster(v); poster != nil {
		t.Errorf("Poster() = %+v, want nil", poster)
	}
	entries, _ := os.ReadDir(filepath.Join(a.Dir(), ThumbnailDataDir))
	if len(entries) != 0 {
		t.Errorf("%s holds %d payloads after delete, want 0", ThumbnailDataDir, len(entries))
	}
}

func TestAddThumbnails_CollectsReplacedPayloads(t *testing.T) {
	a := newTestAsset(t)
	v := publish(t, a, map[string]string{"a.txt": "A"}, true)

	for i, content := range []string{"take one", "take two", "take three"} {
		p := filepath.Join(t.TempDir(), "hero.1.jpg")
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		merge := i%2 == 1
		if _, err := a.AddThumbnails(v, []string{p}, merge, 0); err != nil {
			t.Fatalf("AddThumbnails() take %d error = %v", i+1, err)
		}
	}

	entries, err := os.ReadDir(filepath.Join(a.Dir(), ThumbnailDataDir))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("%s holds %d payloads after replacing the frame, want 1", ThumbnailDataDir, len(entries))
	}
}
