package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigDir_Linux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}

	t.Run("uses XDG_CONFIG_HOME when set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-config/nodeflow", got)
	})

	t.Run("falls back to ~/.config when XDG unset", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		home, err := os.UserHomeDir()
		require.NoError(t, err)

		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".config", "nodeflow"), got)
	})
}

func TestDefaultConfigDir_Darwin(t *testing.T) {
	if runtime.GOOS != "darwin" {
		t.Skip("darwin-only test")
	}

	got, err := DefaultConfigDir()
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Library", "Application Support", "nodeflow"), got)
}

func TestResolveConfigDir(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		envVal  string
		wantSub string // substring the result must contain
	}{
		{
			name:    "flag wins over env",
			flag:    "/explicit/config",
			envVal:  "/env/config",
			wantSub: "/explicit/config",
		},
		{
			name:    "env wins when flag empty",
			envVal:  "/env/config",
			wantSub: "/env/config",
		},
		{
			name:    "platform default when both empty",
			wantSub: "nodeflow",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigDir, tt.envVal)
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Contains(t, got, tt.wantSub)
		})
	}
}

func TestResolveWorkBase(t *testing.T) {
	tests := []struct {
		name        string
		configValue string
		envVal      string
		want        string
	}{
		{
			name:        "config wins over env",
			configValue: "/config/work",
			envVal:      "/env/work",
			want:        "/config/work",
		},
		{
			name:   "env wins when config empty",
			envVal: "/env/work",
			want:   "/env/work",
		},
		{
			name: "temp dir when both empty",
			want: os.TempDir(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvWorkDir, tt.envVal)
			got, err := ResolveWorkBase(tt.configValue)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveConfigDir_AbsolutePath(t *testing.T) {
	t.Run("relative flag becomes absolute", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "")
		got, err := ResolveConfigDir("relative/path")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
	})

	t.Run("relative env becomes absolute", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "relative/env")
		got, err := ResolveConfigDir("")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
	})
}

func TestNewWorkDir(t *testing.T) {
	base := t.TempDir()

	a, err := NewWorkDir(base)
	require.NoError(t, err)
	b, err := NewWorkDir(base)
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "each session gets its own directory")
	assert.Equal(t, filepath.Join(base, WorkRootName), filepath.Dir(a))

	info, err := os.Stat(a)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewWorkDir_DefaultsToTemp(t *testing.T) {
	tmp := t.TempDir()
	orig := platformDir.tempDir
	platformDir.tempDir = func() string { return tmp }
	t.Cleanup(func() { platformDir.tempDir = orig })

	dir, err := NewWorkDir("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmp, WorkRootName), filepath.Dir(dir))
}
