package file

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// DefaultDirName is the directory under the user's home that holds docaudit state.
const DefaultDirName = ".docaudit"

// envOverrides maps environment variables onto configuration keys.
// Values taken from the environment are never written to config.toml.
var envOverrides = []struct {
	env string
	key string
	// provider restricts the override to a configured llm.provider.
	provider string
}{
	{env: "GEMINI_API_KEY", key: "llm.api_key", provider: "gemini"},
	{env: "OPENAI_API_KEY", key: "llm.api_key", provider: "openai"},
	{env: "ANTHROPIC_API_KEY", key: "llm.api_key", provider: "anthropic"},
	{env: "DOCAUDIT_LLM_API_KEY", key: "llm.api_key"},
	{env: "DOCAUDIT_COMPANY_LLM_API_KEY", key: "company_llm.api_key"},
	{env: "DOCAUDIT_PG_DSN", key: "storage.postgres_dsn"},
	{env: "DOCAUDIT_S3_ENDPOINT", key: "s3.endpoint"},
	{env: "DOCAUDIT_S3_REGION", key: "s3.region"},
	{env: "DOCAUDIT_S3_ACCESS_KEY", key: "s3.access_key"},
	{env: "DOCAUDIT_S3_SECRET_KEY", key: "s3.secret_key"},
	{env: "DOCAUDIT_S3_BUCKET", key: "s3.bucket"},
}

// ConfigStore is a file-based implementation of driven.ConfigStore using TOML.
// Configuration lives in config.toml within the docaudit config directory.
// Secrets may also come from the process environment or a .env file next to
// config.toml; those take precedence over the file and are not persisted.
type ConfigStore struct {
	mu        sync.RWMutex
	filePath  string
	envPath   string
	data      map[string]any
	overrides map[string]string
}

// NewConfigStore creates a new TOML-based config store.
// If configDir is empty, defaults to ~/.docaudit/config.toml.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	dir, err := ResolveDir(configDir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath:  filepath.Join(dir, "config.toml"),
		envPath:   filepath.Join(dir, ".env"),
		data:      make(map[string]any),
		overrides: make(map[string]string),
	}

	if err := s.Load(); err != nil {
		return nil, err
	}

	return s, nil
}

// ResolveDir returns configDir, or ~/.docaudit when it is empty.
func ResolveDir(configDir string) (string, error) {
	if configDir != "" {
		return configDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultDirName), nil
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if v, ok := s.overrides[key]; ok {
		return v, true
	}
	val, ok := s.data[key]
	return val, ok
}

// GetString retrieves a string configuration value.
func (s *ConfigStore) GetString(key string) string {
	val, ok := s.Get(key)
	if !ok {
		return ""
	}

	str, ok := val.(string)
	if !ok {
		return ""
	}
	return str
}

// GetInt retrieves an integer configuration value.
func (s *ConfigStore) GetInt(key string) int {
	return int(s.GetInt64(key))
}

// GetInt64 retrieves a 64-bit integer configuration value.
func (s *ConfigStore) GetInt64(key string) int64 {
	val, ok := s.Get(key)
	if !ok {
		return 0
	}

	// TOML integers are parsed as int64
	switch v := val.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// GetFloat retrieves a floating point configuration value.
func (s *ConfigStore) GetFloat(key string) float64 {
	val, ok := s.Get(key)
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// GetBool retrieves a boolean configuration value.
func (s *ConfigStore) GetBool(key string) bool {
	val, ok := s.Get(key)
	if !ok {
		return false
	}

	switch v := val.(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	default:
		return false
	}
}

// GetStringSlice retrieves a string slice configuration value.
func (s *ConfigStore) GetStringSlice(key string) []string {
	val, ok := s.Get(key)
	if !ok {
		return nil
	}

	// TOML arrays are parsed as []any
	switch v := val.(type) {
	case []string:
		return v
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				result = append(result, str)
			}
		}
		return result
	default:
		return nil
	}
}

// Set stores a configuration value and persists immediately.
// Writing back a value that currently comes from the environment is a no-op.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if env, ok := s.overrides[key]; ok {
		if str, isStr := value.(string); isStr && str == env {
			return nil
		}
	}

	s.data[key] = value
	if key == "llm.provider" {
		overrides, err := s.readEnv()
		if err != nil {
			return err
		}
		s.overrides = overrides
	}
	return s.save()
}

// Save persists the current configuration to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save writes configuration to the TOML file (caller must hold lock).
func (s *ConfigStore) save() error {
	data, err := toml.Marshal(nestMap(s.data))
	if err != nil {
		return err
	}

	// Write with restricted permissions
	return os.WriteFile(s.filePath, data, 0600)
}

// Load reads configuration from the TOML file and refreshes environment overrides.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, err := readTOML(s.filePath)
	if err != nil {
		return err
	}
	s.data = flattenMap(loaded, "")

	overrides, err := s.readEnv()
	if err != nil {
		return err
	}
	s.overrides = overrides
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

func readTOML(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// No config file yet - that's fine, start empty
			return map[string]any{}, nil
		}
		return nil, err
	}

	var loaded map[string]any
	if err := toml.Unmarshal(raw, &loaded); err != nil {
		return nil, err
	}
	if loaded == nil {
		loaded = make(map[string]any)
	}
	return loaded, nil
}

// readEnv collects overrides from the .env file and the process environment.
// The process environment wins over the .env file (caller must hold lock).
func (s *ConfigStore) readEnv() (map[string]string, error) {
	dotenv := map[string]string{}
	if _, err := os.Stat(s.envPath); err == nil {
		dotenv, err = godotenv.Read(s.envPath)
		if err != nil {
			return nil, err
		}
	}

	lookup := func(name string) string {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			return v
		}
		return dotenv[name]
	}

	provider, _ := s.data["llm.provider"].(string)
	overrides := make(map[string]string)
	for _, o := range envOverrides {
		if o.provider != "" && o.provider != provider {
			continue
		}
		if v := lookup(o.env); v != "" {
			overrides[o.key] = v
		}
	}
	return overrides, nil
}

// flattenMap converts nested maps to dot-notation keys.
// E.g., {"a": {"b": 1}} becomes {"a.b": 1}.
func flattenMap(m map[string]any, prefix string) map[string]any {
	result := make(map[string]any)

	for key, value := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]any); ok {
			for k, v := range flattenMap(nested, fullKey) {
				result[k] = v
			}
		} else {
			result[fullKey] = value
		}
	}

	return result
}

// nestMap is the inverse of flattenMap so config.toml is written with tables.
// A key that is both a value and a table prefix keeps its dotted form.
func nestMap(flat map[string]any) map[string]any {
	root := make(map[string]any)
	for key, value := range flat {
		parts := strings.Split(key, ".")
		node := root
		placed := true
		for _, part := range parts[:len(parts)-1] {
			child, exists := node[part]
			if !exists {
				next := make(map[string]any)
				node[part] = next
				node = next
				continue
			}
			next, isMap := child.(map[string]any)
			if !isMap {
				placed = false
				break
			}
			node = next
		}
		leaf := parts[len(parts)-1]
		if _, clash := node[leaf].(map[string]any); !placed || clash {
			if _, taken := root[key]; !taken {
				root[key] = value
			}
			continue
		}
		node[leaf] = value
	}
	return root
}
