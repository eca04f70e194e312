package asset

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"hoard-go/internal/model"
)

func TestNotes(t *testing.T) {
	a := newTestAsset(t)
	v := publish(t, a, map[string]string{"a.txt": "A"}, true)

	for _, scope := range []model.VersionID{model.AssetScope, v} {
		t.Run(scope.String(), func(t *testing.T) {
			if err := a.AddNotes(scope, "first pass", false); err != nil {
				t.Fatalf("AddNotes() error = %v", err)
			}
			if err := a.AddNotes(scope, "client approved", false); err != nil {
				t.Fatalf("AddNotes() error = %v", err)
			}
			got, err := a.Notes(scope)
			if err != nil {
				t.Fatalf("Notes() error = %v", err)
			}
			if got != "first pass\nclient approved\n" {
				t.Errorf("Notes() = %q", got)
			}

			if err := a.AddNotes(scope, "final", true); err != nil {
				t.Fatalf("AddNotes(replace) error = %v", err)
			}
			if got, _ := a.Notes(scope); got != "final\n" {
				t.Errorf("Notes() after replace = %q", got)
			}

			if err := a.DeleteNotes(scope); err != nil {
				t.Fatalf("DeleteNotes() error = %v", err)
			}
			if got, _ := a.Notes(scope); got != "" {
				t.Errorf("Notes() after delete = %q", got)
			}
		})
	}
}

func TestLedger_MissingVersion(t *testing.T) {
	a := newTestAsset(t)
	checks := map[string]error{
		"notes":    a.AddNotes(3, "x", false),
		"keywords": a.AddKeywords(3, []string{"x"}),
		"metadata": a.AddMetadata(3, map[string]string{"k": "v"}),
	}
	for name, err := range checks {
		if !errors.Is(err, model.ErrVersionNotFound) {
			t.Errorf("%s: error = %v, want ErrVersionNotFound", name, err)
		}
	}
}

func TestLedger_ReadsCreateNothing(t *testing.T) {
	a := newTestAsset(t)
	v, err := a.ReserveVersion()
	if err != nil {
		t.Fatal(err)
	}
	dirs := map[model.VersionID]string{
		model.AssetScope: filepath.Join(a.Dir(), MetadataDir),
		v:                a.SidecarDir(v),
	}
	for scope, dir := range dirs {
		t.Run(scope.String(), func(t *testing.T) {
			if err := os.RemoveAll(dir); err != nil {
				t.Fatal(err)
			}
			if notes, err := a.Notes(scope); err != nil || notes != "" {
				t.Errorf("Notes() = %q, %v", notes, err)
			}
			if kws, err := a.Keywords(scope); err != nil || len(kws) != 0 {
				t.Errorf("Keywords() = %v, %v", kws, err)
			}
			if kv, err := a.Metadata(scope); err != nil || len(kv) != 0 {
				t.Errorf("Metadata() = %v, %v", kv, err)
			}
			if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
				t.Errorf("reading the ledger created %s", dir)
			}
		})
	}
}

func TestKeywords(t *testing.T) {
	a := newTestAsset(t)

	if err := a.AddKeywords(model.AssetScope, []string{"hero", "Prop", "hero"}); err != nil {
		t.Fatalf("AddKeywords() error = %v", err)
	}
	got, err := a.Keywords(model.AssetScope)
	if err != nil {
		t.Fatalf("Keywords() error = %v", err)
	}
	if want := []string{"HERO", "PROP"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Keywords() = %v, want %v", got, want)
	}

	if err := a.DeleteKeywords(model.AssetScope, []string{"prop", "absent"}); err != nil {
		t.Fatalf("DeleteKeywords() error = %v", err)
	}
	got, _ = a.Keywords(model.AssetScope)
	if want := []string{"HERO"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Keywords() after delete = %v, want %v", got, want)
	}

	if err := a.AddKeywords(model.AssetScope, []string{"  "}); !errors.Is(err, model.ErrInvalidKeyword) {
		t.Errorf("AddKeywords(blank) error = %v, want ErrInvalidKeyword", err)
	}
}

func TestMetadata(t *testing.T) {
	a := newTestAsset(t)

	if err := a.AddMetadata(model.AssetScope, map[string]string{"frames": "120", "Artist": "kim"}); err != nil {
		t.Fatalf("AddMetadata() error = %v", err)
	}
	if err := a.AddMetadata(model.AssetScope, map[string]string{"FRAMES": "96", "ratio": "a=b"}); err != nil {
		t.Fatalf("AddMetadata() error = %v", err)
	}
	got, err := a.Metadata(model.AssetScope)
	if err != nil {
		t.Fatalf("Metadata() error = %v", err)
	}
	want := map[string]string{"FRAMES": "96", "ARTIST": "kim", "RATIO": "a=b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Metadata() = %v, want %v", got, want)
	}

	if err := a.DeleteMetadata(model.AssetScope, []string{"artist", "missing"}); err != nil {
		t.Fatalf("DeleteMetadata() error = %v", err)
	}
	got, _ = a.Metadata(model.AssetScope)
	want = map[string]string{"FRAMES": "96", "RATIO": "a=b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Metadata() after delete = %v, want %v", got, want)
	}

	tests := []struct {
		name string
		kv   map[string]string
	}{
		{name: "key with equals", kv: map[string]string{"a=b": "x"}},
		{name: "empty key", kv: map[string]string{"": "x"}},
		{name: "value with newline", kv: map[string]string{"k": "x\ny"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := a.AddMetadata(model.AssetScope, tt.kv); !errors.Is(err, model.ErrInvalidMetadata) {
				t.Errorf("AddMetadata() error = %v, want ErrInvalidMetadata", err)
			}
		})
	}
}

func TestLedger_RoundTripProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	a := newTestAsset(t)
	if err := a.AddKeywords(model.AssetScope, []string{"BASE"}); err != nil {
		t.Fatal(err)
	}
	if err := a.AddMetadata(model.AssetScope, map[string]string{"BASE": "1"}); err != nil {
		t.Fatal(err)
	}

	properties.Property("adding then deleting a keyword restores the keyword set", prop.ForAll(
		func(kw string) bool {
			before, err := a.Keywords(model.AssetScope)
			if err != nil {
				return false
			}
			if err := a.AddKeywords(model.AssetScope, []string{kw}); err != nil {
				return false
			}
			if err := a.DeleteKeywords(model.AssetScope, []string{kw}); err != nil {
				return false
			}
			after, err := a.Keywords(model.AssetScope)
			return err == nil && reflect.DeepEqual(before, after)
		},
		gen.Identifier().SuchThat(func(s string) bool { return model.NormalizeName(s) != "BASE" }),
	))

	properties.Property("adding then deleting a metadata key restores the metadata", prop.ForAll(
		func(key, value string) bool {
			before, err := a.Metadata(model.AssetScope)
			if err != nil {
				return false
			}
			if err := a.AddMetadata(model.AssetScope, map[string]string{key: value}); err != nil {
				return false
			}
			if err := a.DeleteMetadata(model.AssetScope, []string{key}); err != nil {
				return false
			}
			after, err := a.Metadata(model.AssetScope)
			return err == nil && reflect.DeepEqual(before, after)
		},
		gen.Identifier().SuchThat(func(s string) bool { return model.NormalizeName(s) != "BASE" }),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
