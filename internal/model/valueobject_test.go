package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Email
		wantErr bool
	}{
		{name: "plain address", input: "alice@example.com", want: "alice@example.com"},
		{name: "normalizes case and whitespace", input: "  Alice@Example.COM ", want: "alice@example.com"},
		{name: "subdomain", input: "bob@mail.example.org", want: "bob@mail.example.org"},
		{name: "dots and dashes in local part", input: "first.last-x@example.io", want: "first.last-x@example.io"},
		{name: "missing at sign", input: "aliceexample.com", wantErr: true},
		{name: "missing domain", input: "alice@", wantErr: true},
		{name: "missing tld", input: "alice@example", wantErr: true},
		{name: "blank", input: "   ", wantErr: true},
		{name: "spaces inside", input: "al ice@example.com", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := NewEmail(tc.input)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestNewUserName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    UserName
		wantErr bool
	}{
		{name: "plain name", input: "alice", want: "alice"},
		{name: "trims whitespace", input: "  alice  ", want: "alice"},
		{name: "single character", input: "a", want: "a"},
		{name: "max length", input: strings.Repeat("x", 100), want: UserName(strings.Repeat("x", 100))},
		{name: "too long", input: strings.Repeat("x", 101), wantErr: true},
		{name: "blank", input: "   ", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := NewUserName(tc.input)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestNewHashedPassword(t *testing.T) {
	t.Parallel()

	_, err := NewHashedPassword("  ")
	require.ErrorIs(t, err, ErrInvalidInput)

	hash, err := NewHashedPassword("$2a$12$abcdefghijklmnopqrstuv")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
}

func TestNewTokenID(t *testing.T) {
	t.Parallel()

	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		id := NewTokenID()
		require.Len(t, id, 64)
		_, dup := seen[id]
		require.False(t, dup, "token id collision")
		seen[id] = struct{}{}
	}
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	role, err := ParseRole(" Admin ")
	require.NoError(t, err)
	require.Equal(t, RoleAdmin, role)

	role, err = ParseRole("user")
	require.NoError(t, err)
	require.Equal(t, RoleUser, role)

	_, err = ParseRole("superuser")
	require.ErrorIs(t, err, ErrInvalidInput)
}
