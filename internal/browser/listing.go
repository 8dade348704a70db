package browser

import (
	"strings"

	"catalog-admin/internal/catalogtypes"
)

// ViewKind is the branch the listing renders.
type ViewKind int

const (
	ViewEmpty ViewKind = iota
	ViewFolders
	ViewImages
)

func (k ViewKind) String() string {
	switch k {
	case ViewFolders:
		return "folders"
	case ViewImages:
		return "images"
	default:
		return "empty"
	}
}

// View 是一次目录响应的渲染模型。每个文件夹与图片都带删除操作。
type View struct {
	Kind    ViewKind
	Title   string
	Folders []catalogtypes.Category
	Images  []catalogtypes.Image
	// TotalFolders 是过滤前的文件夹数量。
	TotalFolders int
	ShowParent   bool
	Query        string
}

// Title returns the heading for dir.
func Title(dir string) string {
	if dir == "" {
		return "Root folder contents"
	}
	return "Contents of: " + dir
}

// BuildView turns a FilesResponse into the render model.
//
// Categories win when non-empty: a directory is assumed to hold either subfolders or
// image leaves, and the backend does not enforce it. Images render only outside root,
// so an inconsistent root payload with images and no categories shows as empty.
func BuildView(resp *catalogtypes.FilesResponse, dir, query string) View {
	dir = catalogtypes.NormalizeDir(dir)
	v := View{
		Kind:       ViewEmpty,
		Title:      Title(dir),
		ShowParent: dir != "",
		Query:      query,
	}
	if resp == nil {
		return v
	}

	v.TotalFolders = len(resp.Categories)
	switch {
	case len(resp.Categories) > 0:
		v.Kind = ViewFolders
		v.Folders = FilterFolders(resp.Categories, query)
	case len(resp.Images) > 0 && dir != "":
		v.Kind = ViewImages
		v.Images = resp.Images
	}
	return v
}

// FilterFolders keeps categories whose name contains query, case-insensitively,
// in backend order. The query is used as typed; surrounding spaces count.
func FilterFolders(categories []catalogtypes.Category, query string) []catalogtypes.Category {
	q := strings.ToLower(query)
	out := make([]catalogtypes.Category, 0, len(categories))
	for _, c := range categories {
		if q == "" || strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, c)
		}
	}
	return out
}
