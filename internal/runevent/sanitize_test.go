package runevent_test

import (
	"testing"
	"unicode/utf8"

	"github.com/0x6d61/reportwiz/internal/runevent"
)

func TestSanitizeUTF8(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"ascii", []byte("hello"), "hello"},
		{"multibyte", []byte("ログ"), "ログ"},
		{"single bad byte", []byte{'a', 0xff, 'b'}, "a<FF>b"},
		{"truncated sequence", []byte{'x', 0xe3, 0x83}, "x<E3><83>"},
		{"lone continuation", []byte{0x80}, "<80>"},
		{"replacement char is valid", []byte("�"), "�"},
		{"mixed", append([]byte("ok "), 0xf3, ' ', 0xc3, 0xa9), "ok <F3> é"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := runevent.SanitizeUTF8(tt.in)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("output is not valid UTF-8: %q", got)
			}
		})
	}
}

// 不正バイトは1バイトにつき4文字の <XX> になり、落ちるバイトはない。
func TestSanitizeUTF8_ByteAccounting(t *testing.T) {
	in := []byte{'a', 0xfe, 'b', 0xc0, 0xe2, 0x82, 0xac, 0xff, 0xff}
	got := runevent.SanitizeUTF8(in)

	invalid := 0
	for b := in; len(b) > 0; {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			invalid++
		}
		b = b[size:]
	}
	want := len(in) - invalid + 4*invalid
	if len(got) != want {
		t.Errorf("length: got %d, want %d (%q)", len(got), want, got)
	}
}
