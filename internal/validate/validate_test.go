package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Nick     string `validate:"omitempty,max=3"`
}

func TestCheck(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		in      signup
		wantErr string
	}{
		{"valid", signup{Email: "a@b.co", Password: "secret1"}, ""},
		{"missing_email", signup{Password: "secret1"}, "email is a required field"},
		{"bad_email", signup{Email: "nope", Password: "secret1"}, "email must be a valid email address"},
		{"short_password", signup{Email: "a@b.co", Password: "123"}, "password must be at least 6 characters in length"},
		{"untagged_field_name", signup{Email: "a@b.co", Password: "secret1", Nick: "long"}, "Nick must be a maximum of 3 characters in length"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := Check(tc.in)
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.EqualError(t, err, tc.wantErr)
		})
	}
}

func TestFields(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Fields(signup{Email: "a@b.co", Password: "secret1"}))

	got := Fields(signup{})
	assert.Len(t, got, 2)
	assert.Contains(t, got, "email")
	assert.Contains(t, got, "password")
}
