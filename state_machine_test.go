package portal_test

import (
	"testing"

	"github.com/goliatone/go-portal"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to portal.Status
		allowed  bool
	}{
		{portal.StatusUnresolved, portal.StatusResolving, true},
		{portal.StatusUnresolved, portal.StatusAnonymous, true},
		{portal.StatusUnresolved, portal.StatusAuthenticated, true},
		{portal.StatusResolving, portal.StatusAuthenticated, true},
		{portal.StatusResolving, portal.StatusAnonymous, true},
		{portal.StatusAuthenticated, portal.StatusAnonymous, true},
		{portal.StatusAnonymous, portal.StatusAuthenticated, true},
		{portal.StatusAuthenticated, portal.StatusAuthenticated, true},
		{portal.StatusAnonymous, portal.StatusAnonymous, true},

		{portal.StatusResolving, portal.StatusUnresolved, false},
		{portal.StatusAuthenticated, portal.StatusResolving, false},
		{portal.StatusAnonymous, portal.StatusResolving, false},
		{portal.StatusAnonymous, portal.StatusUnresolved, false},
		{portal.StatusAuthenticated, portal.StatusUnresolved, false},
		{portal.Status(42), portal.StatusAnonymous, false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.allowed, portal.CanTransition(tt.from, tt.to))
		})
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "unresolved", portal.StatusUnresolved.String())
	assert.Equal(t, "resolving", portal.StatusResolving.String())
	assert.Equal(t, "authenticated", portal.StatusAuthenticated.String())
	assert.Equal(t, "anonymous", portal.StatusAnonymous.String())
	assert.Equal(t, "status(9)", portal.Status(9).String())

	assert.False(t, portal.StatusResolving.IsSettled())
	assert.True(t, portal.StatusAnonymous.IsSettled())
}
