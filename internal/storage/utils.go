package storage

import (
	"net/url"
	"path"
	"strconv"
	"strings"
)

// StrToUint 将字符串转换为 uint。
// 如果转换失败，它会返回 0 和错误。
func StrToUint(s string) (uint, error) {
	val, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(val), nil
}

// extensionSet 把配置中的扩展名列表转换为小写集合，缺少前导 "." 的会补上。
func extensionSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = true
	}
	return set
}

// hasAllowedExtension 判断文件名的扩展名是否在集合中。空集合表示不限制。
func hasAllowedExtension(set map[string]bool, name string) bool {
	if len(set) == 0 {
		return true
	}
	return set[strings.ToLower(path.Ext(name))]
}

// publicURL 拼接公开访问 URL，每个路径段都会被转义。
func publicURL(base, rel string) string {
	segments := strings.Split(rel, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.Join(segments, "/")
}
