package main

import (
	"testing"

	"container-tracker/internal/features/tracking/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestResolveOptions verifies flag values are mapped onto resolve options.
func TestResolveOptions(t *testing.T) {
	opts, err := resolveOptions("msc", "acme", "scraping", true)

	require.NoError(t, err)
	assert.Equal(t, domain.ResolveOptions{
		Carrier:           "msc",
		ForceRefresh:      true,
		ScopeID:           "acme",
		PreferredProvider: domain.ProviderWebScraping,
	}, opts)
}

// TestResolveOptions_InvalidProvider verifies an unknown provider is rejected instead of running every layer.
func TestResolveOptions_InvalidProvider(t *testing.T) {
	_, err := resolveOptions("", "", "vendr", false)

	assert.ErrorContains(t, err, `invalid -provider "vendr"`)
}
