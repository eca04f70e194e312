package main

import (
	"path"

	"hoard-go/internal/model"

	"github.com/disiqueira/gotree/v3"
)

// assetTree renders asset URIs grouped by repository and token path.
type assetTree struct {
	tree gotree.Tree
	dirs map[string]gotree.Tree
}

func newAssetTree(rootLabel string) assetTree {
	return assetTree{tree: gotree.New(rootLabel), dirs: make(map[string]gotree.Tree)}
}

// dir returns the node for a slash separated key, creating its parents.
func (t assetTree) dir(key string) gotree.Tree {
	if key == "." || key == "" {
		return t.tree
	}
	d := t.dirs[key]
	if d == nil {
		d = t.dir(path.Dir(key)).Add(path.Base(key))
		t.dirs[key] = d
	}
	return d
}

func (t assetTree) insert(u model.URI) {
	key := u.Repo + ":"
	if u.Path != "" {
		key = path.Join(key, u.Path)
	}
	t.dir(key).Add("#" + u.Name)
}

func (t assetTree) render() string {
	return t.tree.Print()
}

func renderAssetTree(records []model.AssetRecord) string {
	t := newAssetTree("assets")
	for _, r := range records {
		t.insert(r.URI)
	}
	return t.render()
}
