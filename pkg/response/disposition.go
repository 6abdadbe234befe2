package response

import (
	"fmt"
	"net/url"
	"strings"
)

// attachmentDisposition 生成兼容中文文件名的 Content-Disposition
// filename 回退为 ASCII，filename* 携带 UTF-8 原名
func attachmentDisposition(filename string) string {
	fallback := asciiFallback(filename)
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, fallback, url.PathEscape(filename))
}

func asciiFallback(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '"' || r == '\\':
			b.WriteByte('_')
		case r < 0x20 || r > 0x7e:
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
