package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	var testCases = []struct {
		description string
		file        string
		env         map[string]string
		expect      func(t *testing.T, conf *Config)
		expectErr   bool
	}{
		{
			description: "defaults",
			expect: func(t *testing.T, conf *Config) {
				assert.Equal(t, DefaultBaseURL, conf.API.BaseURL)
				assert.Equal(t, DefaultTimeout, conf.API.RequestTimeout())
				assert.Equal(t, StorageDisk, conf.Storage.Type)
				assert.Equal(t, DefaultDir(), conf.Storage.Dir)
				assert.Equal(t, DefaultSeverity, conf.Log.Severity)
			},
		},
		{
			description: "file",
			file: `[api]
base_url = "https://quid.example.com/api/v1"
timeout = "5s"
[storage]
type = "memory"
dir = "` + filepath.ToSlash(dir) + `"
[log]
severity = "DEBUG"
`,
			expect: func(t *testing.T, conf *Config) {
				assert.Equal(t, "https://quid.example.com/api/v1/", conf.API.BaseURL)
				assert.Equal(t, 5*time.Second, conf.API.RequestTimeout())
				assert.Equal(t, StorageMemory, conf.Storage.Type)
				assert.Equal(t, filepath.ToSlash(dir), conf.Storage.Dir)
				assert.Equal(t, "debug", conf.Log.Severity)
			},
		},
		{
			description: "environment overrides file",
			file:        "[api]\nbase_url = \"https://file.example.com/\"\n",
			env:         map[string]string{baseURLEnvVar: "http://env.example.com/api/v1/", storageEnvVar: StorageFile},
			expect: func(t *testing.T, conf *Config) {
				assert.Equal(t, "http://env.example.com/api/v1/", conf.API.BaseURL)
				assert.Equal(t, StorageFile, conf.Storage.Type)
			},
		},
		{
			description: "invalid storage",
			file:        "[storage]\ntype = \"s3\"\n",
			expectErr:   true,
		},
		{
			description: "invalid timeout",
			env:         map[string]string{timeoutEnvVar: "soon"},
			expectErr:   true,
		},
		{
			description: "invalid base url",
			env:         map[string]string{baseURLEnvVar: "localhost"},
			expectErr:   true,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			for _, name := range []string{baseURLEnvVar, timeoutEnvVar, storageEnvVar, dirEnvVar, severityEnvVar} {
				t.Setenv(name, testCase.env[name])
			}
			location := ""
			if testCase.file != "" {
				location = filepath.Join(t.TempDir(), "quid.toml")
				require.NoError(t, os.WriteFile(location, []byte(testCase.file), 0o600))
			}
			conf, err := Load(location)
			if testCase.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			testCase.expect(t, conf)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestExampleConfig(t *testing.T) {
	location := filepath.Join(t.TempDir(), "example.toml")
	require.NoError(t, os.WriteFile(location, []byte(ExampleConfig()), 0o600))
	conf, err := Load(location)
	require.NoError(t, err)
	assert.Equal(t, StorageDisk, conf.Storage.Type)
	assert.Equal(t, 30*time.Second, conf.API.RequestTimeout())
}
