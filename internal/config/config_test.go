package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App: AppConfig{
			Environment: "development",
		},
		Logger: LoggerConfig{
			Level: "info",
		},
		Storage: StorageConfig{
			DataPath: "/some/path",
		},
		Actor: ActorConfig{
			DisplayName: "Grace",
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	err := validConfig().validate()
	assert.NoError(t, err)
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_EmptyDataPath(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.DataPath = ""

	err := cfg.validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "data path")
}

func TestResolve_Precedence(t *testing.T) {
	t.Setenv("READSHELF_TEST_KEY", "env-value")

	// Flag value wins over everything.
	assert.Equal(t, "flag-value", resolve("flag-value", "READSHELF_TEST_KEY", "fallback"))

	// Env var wins when the flag is empty.
	assert.Equal(t, "env-value", resolve("", "READSHELF_TEST_KEY", "fallback"))

	// Fallback when neither is set.
	assert.Equal(t, "fallback", resolve("", "READSHELF_UNSET_KEY", "fallback"))
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := `# comment line
READSHELF_ENVFILE_A=from-file
READSHELF_ENVFILE_B="quoted value"

not a pair
READSHELF_ENVFILE_C = spaced
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	for _, key := range []string{"READSHELF_ENVFILE_A", "READSHELF_ENVFILE_B", "READSHELF_ENVFILE_C"} {
		os.Unsetenv(key)
		t.Cleanup(func() { os.Unsetenv(key) })
	}

	require.NoError(t, loadEnvFile(path))

	assert.Equal(t, "from-file", os.Getenv("READSHELF_ENVFILE_A"))
	assert.Equal(t, "quoted value", os.Getenv("READSHELF_ENVFILE_B"))
	assert.Equal(t, "spaced", os.Getenv("READSHELF_ENVFILE_C"))
}

func TestLoadEnvFile_DoesNotOverwriteEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("READSHELF_ENVFILE_D=from-file\n"), 0o644))

	t.Setenv("READSHELF_ENVFILE_D", "from-env")
	require.NoError(t, loadEnvFile(path))

	assert.Equal(t, "from-env", os.Getenv("READSHELF_ENVFILE_D"))
}

func TestLoadEnvFile_Missing(t *testing.T) {
	err := loadEnvFile(filepath.Join(t.TempDir(), "absent.env"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDefaultDataPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".readshelf"), defaultDataPath())
}
