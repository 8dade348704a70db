package browser

import (
	"strings"

	"catalog-admin/internal/catalogtypes"
)

// RootCrumbName is the label of the synthetic root breadcrumb.
const RootCrumbName = "Files"

// Breadcrumb is one entry of the navigation trail.
type Breadcrumb struct {
	Name string
	Path string
}

// Directory holds the Current Directory. It is always normalized: no leading or
// trailing "/", no empty segments, no leading "files/" segment; "" is root.
type Directory struct {
	current string
}

// NewDirectory returns a Directory positioned at path.
func NewDirectory(path string) *Directory {
	return &Directory{current: catalogtypes.NormalizeDir(path)}
}

// Current returns the Current Directory.
func (d *Directory) Current() string {
	return d.current
}

// IsRoot reports whether the Current Directory is root.
func (d *Directory) IsRoot() bool {
	return d.current == ""
}

// NavigateTo replaces the Current Directory. Every call must be followed by exactly
// one fetch, including navigation to the directory already shown.
func (d *Directory) NavigateTo(path string) {
	d.current = catalogtypes.NormalizeDir(path)
}

// NavigateUp drops the last segment. At root it does nothing and returns false:
// the caller must not fetch.
func (d *Directory) NavigateUp() bool {
	if d.current == "" {
		return false
	}
	parent := ""
	if i := strings.LastIndex(d.current, "/"); i >= 0 {
		parent = d.current[:i]
	}
	d.NavigateTo(parent)
	return true
}

// Breadcrumbs derives the trail for the Current Directory.
func (d *Directory) Breadcrumbs() []Breadcrumb {
	return BuildBreadcrumbs(d.current)
}

// BuildBreadcrumbs splits dir on "/", drops empty segments and accumulates a running
// path. The first entry is always {Files, ""}.
func BuildBreadcrumbs(dir string) []Breadcrumb {
	crumbs := []Breadcrumb{{Name: RootCrumbName, Path: ""}}
	acc := ""
	for _, seg := range strings.Split(dir, "/") {
		if seg == "" {
			continue
		}
		acc = catalogtypes.JoinDir(acc, seg)
		crumbs = append(crumbs, Breadcrumb{Name: seg, Path: acc})
	}
	return crumbs
}
