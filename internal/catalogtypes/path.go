package catalogtypes

import (
	"path"
	"strings"
)

// filesPrefix 是静态文件 URL 的路径段，可能随链接混入当前目录。
const filesPrefix = "files/"

// NormalizeDir takes a user path like "", ".", "/a/b", "a//b", "files/a" and returns
// a slash-based relative path with no leading or trailing slash and no leading
// "files/" segment. "" means root.
func NormalizeDir(p string) string {
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, "\\", "/")
	if p == "" || p == "." || p == "/" {
		return ""
	}
	p = path.Clean("/" + p)
	p = strings.TrimPrefix(p, "/")
	if p == "." {
		return ""
	}
	p = strings.TrimPrefix(p, filesPrefix)
	return p
}

// JoinDir joins a normalized dir and an entry name.
func JoinDir(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

// BaseName 返回目录的最后一段，根目录返回 ""。
func BaseName(dir string) string {
	if dir == "" {
		return ""
	}
	if i := strings.LastIndex(dir, "/"); i >= 0 {
		return dir[i+1:]
	}
	return dir
}

// ValidateEntryName 校验文件夹或文件名：非空，不含路径分隔符，不是 "." 或 ".."。
func ValidateEntryName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return ErrInvalidName
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return ErrInvalidName
	}
	return nil
}
