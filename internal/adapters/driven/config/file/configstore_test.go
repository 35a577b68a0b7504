package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearSecretEnv blanks every variable the store reads so host settings do not leak in.
func clearSecretEnv(t *testing.T) {
	t.Helper()
	for _, o := range envOverrides {
		t.Setenv(o.env, "")
	}
}

func newTestStore(t *testing.T) (*ConfigStore, string) {
	t.Helper()
	clearSecretEnv(t)
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	return store, dir
}

func TestNewConfigStore_Success(t *testing.T) {
	store, dir := newTestStore(t)

	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
}

func TestResolveDir(t *testing.T) {
	dir, err := ResolveDir("/tmp/custom")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom", dir)

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}
	dir, err = ResolveDir("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".docaudit"), dir)
}

func TestNewConfigStore_WithNestedDirectory(t *testing.T) {
	clearSecretEnv(t)
	dir := filepath.Join(t.TempDir(), "a", "b", "c")

	store, err := NewConfigStore(dir)

	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	clearSecretEnv(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	_, err := NewConfigStore(filepath.Join(blocker, "sub"))

	assert.Error(t, err)
}

func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	clearSecretEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not = [valid"), 0600))

	_, err := NewConfigStore(dir)

	assert.Error(t, err)
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Set("analysis.method", "external_ai"))

	val, ok := store.Get("analysis.method")
	assert.True(t, ok)
	assert.Equal(t, "external_ai", val)

	_, ok = store.Get("missing.key")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Set("analysis.page_chars", int64(1800)))
	require.NoError(t, store.Set("analysis.max_upload_bytes", int64(50<<20)))
	require.NoError(t, store.Set("llm.requests_per_second", 1.5))
	require.NoError(t, store.Set("analysis.screenshots", true))
	require.NoError(t, store.Set("rules.disabled", []string{"typo", "spacing"}))
	require.NoError(t, store.Set("analysis.cross_reference_type", "section"))

	assert.Equal(t, 1800, store.GetInt("analysis.page_chars"))
	assert.Equal(t, int64(50<<20), store.GetInt64("analysis.max_upload_bytes"))
	assert.InDelta(t, 1.5, store.GetFloat("llm.requests_per_second"), 1e-9)
	assert.True(t, store.GetBool("analysis.screenshots"))
	assert.Equal(t, []string{"typo", "spacing"}, store.GetStringSlice("rules.disabled"))
	assert.Equal(t, "section", store.GetString("analysis.cross_reference_type"))
}

func TestConfigStore_TypedGetters_Mismatch(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Set("a.string", "hello"))
	require.NoError(t, store.Set("a.int", int64(7)))

	assert.Equal(t, 0, store.GetInt("a.string"))
	assert.Zero(t, store.GetFloat("a.string"))
	assert.False(t, store.GetBool("a.int"))
	assert.Equal(t, "", store.GetString("a.int"))
	assert.Nil(t, store.GetStringSlice("a.int"))
	assert.InDelta(t, 7.0, store.GetFloat("a.int"), 1e-9)
}

func TestConfigStore_TypedGetters_Missing(t *testing.T) {
	store, _ := newTestStore(t)

	assert.Equal(t, "", store.GetString("nope"))
	assert.Equal(t, 0, store.GetInt("nope"))
	assert.Equal(t, int64(0), store.GetInt64("nope"))
	assert.Zero(t, store.GetFloat("nope"))
	assert.False(t, store.GetBool("nope"))
	assert.Nil(t, store.GetStringSlice("nope"))
}

func TestConfigStore_Persistence(t *testing.T) {
	store, dir := newTestStore(t)

	require.NoError(t, store.Set("analysis.method", "company_llm"))
	require.NoError(t, store.Set("analysis.model_timeout_seconds", int64(120)))
	require.NoError(t, store.Set("llm.requests_per_second", 0.5))
	require.NoError(t, store.Set("rules.disabled", []string{"typo"}))

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "company_llm", reopened.GetString("analysis.method"))
	assert.Equal(t, 120, reopened.GetInt("analysis.model_timeout_seconds"))
	assert.InDelta(t, 0.5, reopened.GetFloat("llm.requests_per_second"), 1e-9)
	assert.Equal(t, []string{"typo"}, reopened.GetStringSlice("rules.disabled"))
}

func TestConfigStore_WritesTables(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Set("analysis.method", "local_patterns"))
	require.NoError(t, store.Set("detectors.patterns.max_matches", int64(50)))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[analysis]")
	assert.Contains(t, string(raw), "[detectors.patterns]")
	assert.Equal(t, 50, store.GetInt("detectors.patterns.max_matches"))
}

func TestConfigStore_ReadsHandWrittenTables(t *testing.T) {
	clearSecretEnv(t)
	dir := t.TempDir()
	content := `
[analysis]
method = "external_ai"
page_chars = 2000

[llm]
provider = "gemini"
requests_per_second = 2.0
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "external_ai", store.GetString("analysis.method"))
	assert.Equal(t, 2000, store.GetInt("analysis.page_chars"))
	assert.Equal(t, "gemini", store.GetString("llm.provider"))
	assert.InDelta(t, 2.0, store.GetFloat("llm.requests_per_second"), 1e-9)
}

func TestConfigStore_EmptyFile(t *testing.T) {
	clearSecretEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), nil, 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	_, ok := store.Get("anything")
	assert.False(t, ok)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Save())

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_Save_WriteFileError(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	store, dir := newTestStore(t)
	require.NoError(t, os.Chmod(dir, 0500))
	t.Cleanup(func() { _ = os.Chmod(dir, 0700) })

	assert.Error(t, store.Set("k", "v"))
}

func TestConfigStore_EnvironmentOverrides(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Set("llm.provider", "gemini"))
	require.NoError(t, store.Set("llm.api_key", "from-file"))

	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("OPENAI_API_KEY", "wrong-provider")
	t.Setenv("DOCAUDIT_PG_DSN", "postgres://localhost/docaudit")
	require.NoError(t, store.Load())

	assert.Equal(t, "from-env", store.GetString("llm.api_key"))
	assert.Equal(t, "postgres://localhost/docaudit", store.GetString("storage.postgres_dsn"))
}

func TestConfigStore_ProviderChangeRefreshesOverrides(t *testing.T) {
	store, _ := newTestStore(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	assert.Equal(t, "", store.GetString("llm.api_key"))

	require.NoError(t, store.Set("llm.provider", "anthropic"))
	assert.Equal(t, "sk-ant", store.GetString("llm.api_key"))
}

func TestConfigStore_EnvironmentValuesAreNotPersisted(t *testing.T) {
	store, dir := newTestStore(t)
	t.Setenv("DOCAUDIT_S3_SECRET_KEY", "s3-secret")
	require.NoError(t, store.Load())

	// Settings saves read secrets back through Set.
	require.NoError(t, store.Set("s3.secret_key", store.GetString("s3.secret_key")))
	require.NoError(t, store.Save())

	raw, err := os.ReadFile(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "s3-secret")
}

func TestConfigStore_DotEnvFile(t *testing.T) {
	clearSecretEnv(t)
	dir := t.TempDir()
	env := "DOCAUDIT_COMPANY_LLM_API_KEY=company-key\nDOCAUDIT_S3_BUCKET=from-dotenv\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0600))
	t.Setenv("DOCAUDIT_S3_BUCKET", "from-process")

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "company-key", store.GetString("company_llm.api_key"))
	assert.Equal(t, "from-process", store.GetString("s3.bucket"), "process environment wins")
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, _ := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("concurrent.key", int64(n))
			_ = store.GetInt("concurrent.key")
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("concurrent.key")
	assert.True(t, ok)
}

func TestNestMap(t *testing.T) {
	nested := nestMap(map[string]any{
		"analysis.method":   "manual_only",
		"detectors.enabled": []string{"sections"},
		"top":               "level",
	})

	assert.Equal(t, "level", nested["top"])
	analysis, ok := nested["analysis"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "manual_only", analysis["method"])

	assert.Equal(t, map[string]any{
		"analysis.method":   "manual_only",
		"detectors.enabled": []string{"sections"},
		"top":               "level",
	}, flattenMap(nested, ""))
}
