package runevent

import (
	"strings"
	"unicode/utf8"
)

const hexDigits = "0123456789ABCDEF"

// SanitizeUTF8 は不正な UTF-8 バイトを1バイトずつ "<XX>" に置き換える。
// 正しいシーケンスはそのまま残すので、入力の各バイトは必ず出力のどこかに現れる。
func SanitizeUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb strings.Builder
	sb.Grow(len(b) + 16)
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size <= 1 {
			sb.WriteByte('<')
			sb.WriteByte(hexDigits[b[0]>>4])
			sb.WriteByte(hexDigits[b[0]&0x0f])
			sb.WriteByte('>')
			b = b[1:]
			continue
		}
		sb.Write(b[:size])
		b = b[size:]
	}
	return sb.String()
}
