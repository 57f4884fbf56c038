package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-reminder/internal/model"
)

func TestParseWhen(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	now := time.Date(2026, 5, 14, 7, 0, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want time.Time
	}{
		{in: "", want: time.Time{}},
		{in: "18:30", want: time.Date(2026, 5, 14, 18, 30, 0, 0, loc)},
		{in: "2026-05-20 09:15", want: time.Date(2026, 5, 20, 9, 15, 0, 0, loc)},
		{in: "2026-05-20T09:15", want: time.Date(2026, 5, 20, 9, 15, 0, 0, loc)},
		{in: "2026-05-20", want: time.Date(2026, 5, 20, 0, 0, 0, 0, loc)},
		{in: "2026-05-20T09:15:00Z", want: time.Date(2026, 5, 20, 9, 15, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseWhen(tt.in, now, loc)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
		})
	}

	_, err := parseWhen("next tuesday", now, loc)
	assert.Error(t, err)
}

func TestResolveID(t *testing.T) {
	ids := []string{"a1b2c3d4-0000", "a1ffffff-0000", "b7000000-0000"}

	got, err := resolveID("task", "b7", ids)
	require.NoError(t, err)
	assert.Equal(t, "b7000000-0000", got)

	got, err = resolveID("task", "a1ffffff-0000", ids)
	require.NoError(t, err)
	assert.Equal(t, "a1ffffff-0000", got)

	_, err = resolveID("task", "a1", ids)
	assert.ErrorContains(t, err, "ambiguous")

	_, err = resolveID("task", "zz", ids)
	assert.True(t, model.IsDomainError(err, model.ErrCodeNotFound))

	_, err = resolveID("task", " ", ids)
	assert.True(t, model.IsDomainError(err, model.ErrCodeInvalid))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "a1b2c3d4", shortID("a1b2c3d4-0000-0000"))
	assert.Equal(t, "abc", shortID("abc"))
}
