package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/logbook/pkg/git"
)

func TestFindRoot(t *testing.T) {
	// Create a temp directory structure
	// /tmp/
	//   repo/ (.logbook)
	//     subdir/
	//       nested/
	//   empty/

	baseDir := t.TempDir()
	repoDir := filepath.Join(baseDir, "repo")
	subDir := filepath.Join(repoDir, "subdir")
	nestedDir := filepath.Join(subDir, "nested")
	emptyDir := filepath.Join(baseDir, "empty")

	if err := os.MkdirAll(nestedDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(emptyDir, 0755); err != nil {
		t.Fatal(err)
	}

	// Create marker
	if err := os.Mkdir(filepath.Join(repoDir, git.SystemDir), 0755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		startPath string
		wantRoot  string
		wantErr   bool
	}{
		{
			name:      "Start at Root",
			startPath: repoDir,
			wantRoot:  repoDir,
			wantErr:   false,
		},
		{
			name:      "Start in Subdir",
			startPath: subDir,
			wantRoot:  repoDir,
			wantErr:   false,
		},
		{
			name:      "Start Nested Deeply",
			startPath: nestedDir,
			wantRoot:  repoDir,
			wantErr:   false,
		},
		{
			name:      "No Root Found",
			startPath: emptyDir,
			wantRoot:  "",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindRoot(tt.startPath)
			if (err != nil) != tt.wantErr {
				t.Errorf("FindRoot() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			// Compare cleaned paths to avoid trailing slash issues
			if got != "" {
				if filepath.Clean(got) != filepath.Clean(tt.wantRoot) {
					t.Errorf("FindRoot() = %v, want %v", got, tt.wantRoot)
				}
			}
		})
	}
}

func TestFindRoot_PrefersDataDirOverGit(t *testing.T) {
	base := t.TempDir()
	outer := filepath.Join(base, "outer")
	inner := filepath.Join(outer, "logs")
	if err := os.MkdirAll(filepath.Join(inner, ".git"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(outer, git.SystemDir), 0755); err != nil {
		t.Fatal(err)
	}

	got, err := FindRoot(inner)
	if err != nil {
		t.Fatal(err)
	}
	if got != outer {
		t.Errorf("FindRoot() = %v, want %v", got, outer)
	}
}

func TestDiscoverDataDir(t *testing.T) {
	isolate(t)

	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(root, git.SystemDir), 0755); err != nil {
		t.Fatal(err)
	}

	load := func(t *testing.T) (*viper.Viper, Config) {
		t.Helper()
		v := NewViper()
		cfg, err := LoadConfig(v, "")
		require.NoError(t, err)
		return v, cfg
	}

	t.Run("Enclosing Logbook Wins Over Default", func(t *testing.T) {
		v, cfg := load(t)
		assert.True(t, DiscoverDataDir(v, &cfg, nested))
		assert.Equal(t, root, cfg.DataDir)
	})

	t.Run("Environment Wins", func(t *testing.T) {
		t.Setenv("LOGBOOK_DATA_DIR", "/srv/logs")
		v, cfg := load(t)
		assert.False(t, DiscoverDataDir(v, &cfg, nested))
		assert.Equal(t, "/srv/logs", cfg.DataDir)
	})

	t.Run("Plain Git Repository Is Ignored", func(t *testing.T) {
		repo := t.TempDir()
		if err := os.Mkdir(filepath.Join(repo, ".git"), 0755); err != nil {
			t.Fatal(err)
		}
		v, cfg := load(t)
		before := cfg.DataDir
		assert.False(t, DiscoverDataDir(v, &cfg, repo))
		assert.Equal(t, before, cfg.DataDir)
	})
}
