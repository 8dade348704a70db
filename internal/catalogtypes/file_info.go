// internal/catalogtypes/file_info.go
package catalogtypes

// Image 是目录中的一个叶子文件（商品图片）。
type Image struct {
	Name     string `json:"name"`     // 文件名，用于展示与删除
	Code     string `json:"code"`     // 去掉扩展名的文件名，稳定标识
	URL      string `json:"url"`      // 可公开访问的 URL
	Category string `json:"category"` // 所在文件夹名称
}

// Category 是目录树中的一个文件夹节点。
type Category struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Slug   string  `json:"slug"`
	Images []Image `json:"images"`
}

// Pagination describes one page of a directory listing. Page is 1-based.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// FilesResponse is the body of GET /api/files.
//
// A directory is expected to hold either subfolders or image leaves. The backend
// reports what is on disk; renderers treat Categories as authoritative when both
// are non-empty.
type FilesResponse struct {
	Categories []Category `json:"categories"`
	Images     []Image    `json:"images,omitempty"`
	Pagination Pagination `json:"pagination"`
}

// NewPagination 根据总数、页码与每页数量计算分页信息。
func NewPagination(total, page, limit int) Pagination {
	if limit <= 0 {
		limit = 1
	}
	if page <= 0 {
		page = 1
	}
	totalPages := (total + limit - 1) / limit
	// 超出末页的页码统一为末页之后的一页，避免计算偏移时溢出
	if page > totalPages+1 {
		page = totalPages + 1
	}
	return Pagination{Total: total, Page: page, Limit: limit, TotalPages: totalPages}
}

// Window 返回第 page 页在长度为 total 的切片中的 [start, end) 区间。
func (p Pagination) Window() (start, end int) {
	if p.Limit <= 0 || p.Page <= 0 {
		return 0, 0
	}
	if p.Page-1 >= (p.Total+p.Limit-1)/p.Limit {
		return p.Total, p.Total
	}
	start = (p.Page - 1) * p.Limit
	end = start + p.Limit
	if end > p.Total {
		end = p.Total
	}
	return start, end
}
