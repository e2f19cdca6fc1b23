package hwaccel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_DetectAndList(t *testing.T) {
	ResetFallbackState()
	defer ResetFallbackState()

	all := List()
	require.NotEmpty(t, all)
	for _, a := range all {
		assert.False(t, a.Available(), "none are available until registered")
	}
}

func TestRegistry_RegisterAndMarkUnavailable(t *testing.T) {
	ResetFallbackState()
	defer ResetFallbackState()

	RegisterAvailable("nvenc", "NVIDIA GPU")
	assert.True(t, IsAvailable("nvenc"))

	avail := ListAvailable()
	require.Len(t, avail, 1)
	assert.Equal(t, "nvenc", avail[0].Name)

	MarkUnavailable("nvenc")
	assert.False(t, IsAvailable("nvenc"))
	assert.Empty(t, ListAvailable())
}

func TestRegistry_Preferred(t *testing.T) {
	ResetFallbackState()
	defer ResetFallbackState()

	_, ok := Preferred()
	assert.False(t, ok, "no preference designated")

	SetPreferred("vaapi")
	_, ok = Preferred()
	assert.False(t, ok, "designated but not yet available")

	RegisterAvailable("vaapi", "Linux VA-API")
	acc, ok := Preferred()
	require.True(t, ok)
	assert.Equal(t, "vaapi", acc.Name)
}

func TestRegistry_ResetFallbackState(t *testing.T) {
	ResetFallbackState()
	RegisterAvailable("qsv", "Intel Quick Sync")
	MarkUnavailable("qsv")
	require.False(t, IsAvailable("qsv"))

	ResetFallbackState()
	// After reset, qsv reverts to its default catalogue entry (unavailable
	// until re-registered) rather than retaining the marked-unavailable
	// override — both start at unavailable so this just confirms no panic
	// and a consistent re-detect.
	all := List()
	require.NotEmpty(t, all)
}
