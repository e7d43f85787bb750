package emailkey_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/provaplus/checkout-provisioner/internal/lib/emailkey"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "lowercases",
			raw:  "Ana@Test.COM",
			want: "ana@test.com",
		},
		{
			name: "trims whitespace",
			raw:  "  ana@test.com\t\n",
			want: "ana@test.com",
		},
		{
			name: "already normalized",
			raw:  "ana@test.com",
			want: "ana@test.com",
		},
		{
			name: "empty string",
			raw:  "",
			want: "",
		},
		{
			name: "only whitespace",
			raw:  "   ",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, emailkey.Normalize(tt.raw))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Ana@Test.COM",
		" MiXeD@CaSe.Org ",
		"plain@mail.com",
		"",
		"\tUPPER@MAIL.COM\n",
	}

	for _, in := range inputs {
		once := emailkey.Normalize(in)
		twice := emailkey.Normalize(once)
		assert.Equal(t, once, twice, "normalize must be idempotent for %q", in)
	}
}
