package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdoDeveloper/cpe-system-sub000/internal/db/models"
)

func TestValidPattern(t *testing.T) {
	testCases := []struct {
		name    string
		pattern string
		valid   bool
	}{
		{"root", "/", true},
		{"literal", "/tickets", true},
		{"nested literal", "/tickets/timeline", true},
		{"parameter", "/tickets/edit/:id", true},
		{"empty", "", false},
		{"no leading slash", "tickets", false},
		{"empty segment", "/tickets//edit", false},
		{"trailing slash", "/tickets/", false},
		{"unnamed parameter", "/tickets/:", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.valid, ValidPattern(tc.pattern))
		})
	}
}

func TestMatchRoute(t *testing.T) {
	testCases := []struct {
		name    string
		pattern string
		path    string
		match   bool
	}{
		{"exact literal", "/tickets", "/tickets", true},
		{"literal mismatch", "/tickets", "/clients", false},
		{"parameter matches value", "/tickets/edit/:id", "/tickets/edit/42", true},
		{"parameter matches word", "/tickets/edit/:id", "/tickets/edit/abc", true},
		{"segment count differs", "/tickets/edit/:id", "/tickets/edit", false},
		{"extra segment", "/tickets", "/tickets/42", false},
		{"two parameters", "/roles/:roleId/permissions/:permId", "/roles/1/permissions/9", true},
		{"root matches root", "/", "/", true},
		{"malformed never matches", "tickets", "tickets", false},
		{"malformed empty segment", "/tickets//x", "/tickets//x", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.match, MatchRoute(tc.pattern, tc.path))
		})
	}
}

func TestBestMatchSpecificity(t *testing.T) {
	perms := []models.Permission{
		{ID: 1, Route: "/tickets/:id", Method: "GET"},
		{ID: 2, Route: "/tickets/new", Method: "GET"},
	}

	// The literal pattern outranks the parameter pattern for /tickets/new,
	// regardless of slice order.
	p, ok := BestMatch(perms, "GET", "/tickets/new")
	require.True(t, ok)
	assert.Equal(t, uint(2), p.ID)

	perms[0], perms[1] = perms[1], perms[0]
	p, ok = BestMatch(perms, "GET", "/tickets/new")
	require.True(t, ok)
	assert.Equal(t, uint(2), p.ID)

	// Other ids still land on the parameter pattern.
	p, ok = BestMatch(perms, "GET", "/tickets/42")
	require.True(t, ok)
	assert.Equal(t, uint(1), p.ID)
}

func TestBestMatchMethod(t *testing.T) {
	perms := []models.Permission{
		{ID: 1, Route: "/tickets", Method: "GET"},
		{ID: 2, Route: "/tickets", Method: "POST"},
	}

	p, ok := BestMatch(perms, "POST", "/tickets")
	require.True(t, ok)
	assert.Equal(t, uint(2), p.ID)

	_, ok = BestMatch(perms, "DELETE", "/tickets")
	assert.False(t, ok)
}

func TestBestMatchNoPermissions(t *testing.T) {
	_, ok := BestMatch(nil, "GET", "/tickets")
	assert.False(t, ok)
}
