package detector

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRandomDetector verifies that a seeded detector produces both answers.
func TestRandomDetector(t *testing.T) {
	t.Parallel()

	d := NewRandomDetector(rand.NewPCG(1, 2))
	seen := make(map[bool]int)

	for range 64 {
		cat, err := d.ContainsCat(context.Background(), nil, 50)
		require.NoError(t, err)

		seen[cat]++
	}

	require.Positive(t, seen[true])
	require.Positive(t, seen[false])

	// Default source works as well.
	_, err := NewRandomDetector(nil).ContainsCat(context.Background(), []byte{0xff}, 50)
	require.NoError(t, err)
}

// TestStaticDetector verifies the fixed answer and error passthrough.
func TestStaticDetector(t *testing.T) {
	t.Parallel()

	cat, err := (&StaticDetector{CatPresent: true}).ContainsCat(context.Background(), nil, 50)
	require.NoError(t, err)
	require.True(t, cat)

	errCamera := errors.New("camera offline")

	_, err = (&StaticDetector{Err: errCamera}).ContainsCat(context.Background(), nil, 50)
	require.ErrorIs(t, err, errCamera)
}
