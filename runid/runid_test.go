package runid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewIsUniqueAndNonEmpty(t *testing.T) {
	a := New()
	b := New()
	require.NotEmpty(t, a)
	require.NotEqual(t, a, b)
}
