package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("kovacs.anna@example.hu"))
	assert.False(t, IsValidEmail("not-an-email"))
	assert.False(t, IsValidEmail("Anna <anna@example.hu>"))
	assert.False(t, IsValidEmail("anna@localhost"))
	assert.False(t, IsValidEmail(""))
}

func TestUsernameFromEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"Kovacs.Anna@Example.hu", "kovacs.anna"},
		{"nagy+rezsi@example.hu", "nagyrezsi"},
		{"+++@example.hu", "tenant"},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, UsernameFromEmail(tt.email))
		})
	}
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "k*****@example.hu", MaskEmail("kovacs@example.hu"))
	assert.Equal(t, "*@example.hu", MaskEmail("k@example.hu"))
	assert.Equal(t, "garbage", MaskEmail("garbage"))
}
