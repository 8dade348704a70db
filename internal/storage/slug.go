package storage

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// categoryNamespace 是分类 ID (UUIDv5) 的命名空间。
var categoryNamespace = uuid.MustParse("6f1c3b0e-5a7d-4c2b-9e8f-2d4a6b8c0e13")

// CategoryID 根据分类的相对路径生成稳定的 ID，同一路径每次列举都得到同一个值。
func CategoryID(relPath string) string {
	return uuid.NewSHA1(categoryNamespace, []byte(relPath)).String()
}

// Slugify 将名称转换为 URL 友好的形式："Tênis Masculino" -> "tenis-masculino"。
func Slugify(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// ImageCode 返回去掉扩展名的文件名。
func ImageCode(fileName string) string {
	if i := strings.LastIndex(fileName, "."); i > 0 {
		return fileName[:i]
	}
	return fileName
}
