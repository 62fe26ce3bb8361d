package apperr

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"configuration", Configuration(nil, "expected %d numbers", 5), "configuration"},
		{"fetch", Fetch(errors.New("dial tcp: refused"), "fetch draws"), "fetch"},
		{"parse", Parse(nil, "no draws"), "parse"},
		{"not found", NotFound(nil, "no email from %s", "a@b.c"), "not_found"},
		{"delivery", Delivery(errors.New("401"), "send message"), "delivery"},
		{"unclassified", errors.New("boom"), "unknown"},
		{"nil", nil, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Kind(tc.err))
		})
	}
}

func TestMarkSurvivesWrapping(t *testing.T) {
	base := Parse(nil, "template changed")
	wrapped := fmt.Errorf("ticket run: %w", errors.Wrap(base, "extract"))

	require.True(t, Is(wrapped, ErrParse))
	assert.False(t, Is(wrapped, ErrFetch))
	assert.Equal(t, "parse", Kind(wrapped))
	assert.Contains(t, wrapped.Error(), "template changed")
}

func TestCauseIsKeptInMessage(t *testing.T) {
	err := Delivery(errors.New("Unauthorized"), "send to chat %d", 42)

	assert.Equal(t, "send to chat 42: Unauthorized", err.Error())
	assert.True(t, Is(err, ErrDelivery))
}
