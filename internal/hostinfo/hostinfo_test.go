package hostinfo

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withOSRelease(t *testing.T, content string) {
	t.Helper()
	restore := osOpen
	t.Cleanup(func() { osOpen = restore })
	osOpen = func(string) (*os.File, error) {
		f, err := os.CreateTemp(t.TempDir(), "os-release")
		require.NoError(t, err)
		_, err = io.Copy(f, strings.NewReader(content))
		require.NoError(t, err)
		_, err = f.Seek(0, io.SeekStart)
		require.NoError(t, err)
		return f, nil
	}
}

func TestDetect_ArchFamilyByID(t *testing.T) {
	withOSRelease(t, "ID=arch\nPRETTY_NAME=\"Arch Linux\"\n")
	info, err := Detect()
	require.NoError(t, err)
	assert.True(t, info.ArchFamily)
	assert.Equal(t, "Arch Linux", info.PrettyName)
}

func TestDetect_ArchFamilyByIDLike(t *testing.T) {
	withOSRelease(t, "ID=somederivative\nID_LIKE=\"arch\"\n")
	info, err := Detect()
	require.NoError(t, err)
	assert.True(t, info.ArchFamily)
}

func TestDetect_NonArch(t *testing.T) {
	withOSRelease(t, "ID=debian\nPRETTY_NAME=\"Debian 13\"\n")
	info, err := Detect()
	require.NoError(t, err)
	assert.False(t, info.ArchFamily)
}

func TestAURHelper_PrefersParu(t *testing.T) {
	restore := lookPath
	defer func() { lookPath = restore }()

	lookPath = func(name string) (string, error) {
		if name == "paru" || name == "yay" {
			return "/usr/bin/" + name, nil
		}
		return "", os.ErrNotExist
	}
	assert.Equal(t, "paru", AURHelper())

	lookPath = func(name string) (string, error) {
		if name == "yay" {
			return "/usr/bin/yay", nil
		}
		return "", os.ErrNotExist
	}
	assert.Equal(t, "yay", AURHelper())

	lookPath = func(name string) (string, error) { return "", os.ErrNotExist }
	assert.Equal(t, "", AURHelper())
}
