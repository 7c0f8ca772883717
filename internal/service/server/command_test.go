package server

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/catpoint/internal/config"
	"github.com/oshokin/catpoint/internal/detector"
)

// TestResolveListenAddress covers the override and the port-only fallback.
func TestResolveListenAddress(t *testing.T) {
	t.Parallel()

	addr, err := resolveListenAddress("alarm.local:7000", ":9090")
	require.NoError(t, err)
	require.Equal(t, ":9090", addr)

	addr, err = resolveListenAddress("alarm.local:7000", "")
	require.NoError(t, err)
	require.Equal(t, ":7000", addr)

	_, err = resolveListenAddress("", "")
	require.ErrorIs(t, err, ErrNoServerAddress)

	_, err = resolveListenAddress("alarm.local", "")
	require.Error(t, err)
}

// TestNewDetector selects the backend by kind.
func TestNewDetector(t *testing.T) {
	t.Parallel()

	static := newDetector(config.DetectorConfig{Kind: config.DetectorStatic, CatPresent: true})
	require.Equal(t, &detector.StaticDetector{CatPresent: true}, static)

	require.IsType(t, new(detector.RandomDetector), newDetector(config.DetectorConfig{Kind: config.DetectorRandom}))
}
