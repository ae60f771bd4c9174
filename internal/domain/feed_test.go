package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"feedpulse/internal/domain"
)

func TestFeedCursor_Roundtrip(t *testing.T) {
	cursor := domain.FeedCursor{
		UpdatedAt: time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC),
		ID:        uuid.New(),
	}

	decoded := domain.DecodeFeedCursor(cursor.Encode())

	assert.True(t, decoded.UpdatedAt.Equal(cursor.UpdatedAt))
	assert.Equal(t, cursor.ID, decoded.ID)
}

func TestDecodeFeedCursor_MalformedDegradesToFirstPage(t *testing.T) {
	cases := []string{
		"",
		"not-base64!!!",
		"bm8tc2VwYXJhdG9y",         // valid base64, no separator
		"MjAyNnxub3QtYS11dWlk",     // bad uuid
		"bm90LWEtdGltZXxhYmNkZWY=", // bad timestamp
	}
	for _, c := range cases {
		assert.True(t, domain.DecodeFeedCursor(c).IsZero(), "cursor %q", c)
	}
}

func TestClampPageSize(t *testing.T) {
	assert.Equal(t, domain.DefaultPageSize, domain.ClampPageSize(0))
	assert.Equal(t, domain.DefaultPageSize, domain.ClampPageSize(-5))
	assert.Equal(t, 42, domain.ClampPageSize(42))
	assert.Equal(t, domain.MaxPageSize, domain.ClampPageSize(10000))
}
