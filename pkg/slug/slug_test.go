package slug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"  Café  Crème!! ", "cafe-creme"},
		{"already-a-slug", "already-a-slug"},
		{"Ünïcödé & friends", "unicode-friends"},
		{"متجر تناد", "متجر-تناد"},
		{"---", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Make(tt.in))
		})
	}
}

func TestMake_Truncates(t *testing.T) {
	out := Make(strings.Repeat("ab ", 60))
	assert.LessOrEqual(t, len(out), MaxLength)
	assert.False(t, strings.HasSuffix(out, "-"))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("my-page"))
	assert.False(t, Valid("My Page"))
	assert.False(t, Valid(""))
}
