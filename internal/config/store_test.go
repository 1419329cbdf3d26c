package config

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
)

type fakePrompter struct {
	provider string
	key      string
	err      error
	asked    []string
}

func (f *fakePrompter) Provider() (string, error) {
	f.asked = append(f.asked, "provider")
	return f.provider, f.err
}

func (f *fakePrompter) APIKey(provider string) (string, error) {
	f.asked = append(f.asked, "key:"+provider)
	return f.key, nil
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), AppName)
	return NewStore(dir, log.New(io.Discard)), dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	bts, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(bts)
}

func TestLoadCurrent(t *testing.T) {
	t.Run("unchanged", func(t *testing.T) {
		store, _ := newTestStore(t)
		want := Default()
		want.Provider = "openai"
		want.Proxy = "http://127.0.0.1:8080"
		want.Gemini.APIKey = "g-key"
		want.OpenAI.APIKey = "o-key"
		want.OpenAI.MaxTokens = 99
		require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o700))
		require.NoError(t, store.Save(&want))
		before := readFile(t, store.Path())

		for range 2 {
			cfg, err := store.Load(nil)
			require.NoError(t, err)
			require.Equal(t, want, *cfg)
			require.Equal(t, before, readFile(t, store.Path()))
		}
	})

	t.Run("missing fields are defaulted", func(t *testing.T) {
		store, _ := newTestStore(t)
		writeFile(t, store.Path(), `{
    "provider": "gemini",
    "gemini_config": {
        "api_key": "g-key",
        "generation_config": {"temperature": 0.2}
    }
}`)
		before := readFile(t, store.Path())

		cfg, err := store.Load(nil)
		require.NoError(t, err)
		want := Default()
		want.Gemini.APIKey = "g-key"
		want.Gemini.GenerationConfig.Temperature = 0.2
		require.Equal(t, want, *cfg)
		require.Equal(t, before, readFile(t, store.Path()), "defaults are not written back")
	})

	t.Run("unknown provider still loads", func(t *testing.T) {
		store, _ := newTestStore(t)
		writeFile(t, store.Path(), `{"provider": "claude"}`)
		cfg, err := store.Load(nil)
		require.NoError(t, err)
		require.ErrorIs(t, cfg.Validate(), ErrUnknownProvider)
	})
}

func TestLoadMalformed(t *testing.T) {
	for name, content := range map[string]string{
		"syntax":     `{"provider": "gemini",`,
		"null":       `null`,
		"array":      `[1, 2]`,
		"wrong type": `{"provider": "gemini", "gemini_config": {"generation_config": {"top_k": "many"}}}`,
		"bad nested": `{"provider": "gemini", "gemini_config": 3}`,
	} {
		t.Run(name, func(t *testing.T) {
			store, _ := newTestStore(t)
			writeFile(t, store.Path(), content)

			cfg, err := store.Load(&fakePrompter{provider: "gemini", key: "k"})
			require.ErrorIs(t, err, ErrMalformed)
			require.Contains(t, err.Error(), store.Path())
			require.Nil(t, cfg)
			require.Equal(t, content, readFile(t, store.Path()), "never repaired")
		})
	}
}

func TestLoadLegacyKeyFile(t *testing.T) {
	store, dir := newTestStore(t)
	keyPath := filepath.Join(dir, LegacyKeyName)
	writeFile(t, keyPath, "  AIza-legacy \n")

	cfg, err := store.Load(nil)
	require.NoError(t, err)
	require.Equal(t, "gemini", cfg.Provider)
	require.Equal(t, "AIza-legacy", cfg.Gemini.APIKey)
	require.Empty(t, cfg.OpenAI.APIKey)

	require.NoFileExists(t, keyPath)
	require.NoFileExists(t, keyPath+BackupSuffix)
	require.FileExists(t, store.Path())

	again, err := store.Load(nil)
	require.NoError(t, err)
	require.Equal(t, cfg, again)
}

func TestLoadLegacyEmptyKeyFile(t *testing.T) {
	store, dir := newTestStore(t)
	keyPath := filepath.Join(dir, LegacyKeyName)
	writeFile(t, keyPath, "\n")

	_, err := store.Load(nil)
	require.ErrorIs(t, err, ErrNotReady)
	require.NoFileExists(t, keyPath)
	require.FileExists(t, keyPath+BackupSuffix, "kept until settings are written")
	require.NoFileExists(t, store.Path())
}

func TestLoadFlat(t *testing.T) {
	t.Run("minimal", func(t *testing.T) {
		store, _ := newTestStore(t)
		writeFile(t, store.Path(), `{"api_key":"X","model_name":"m"}`)

		cfg, err := store.Load(nil)
		require.NoError(t, err)

		want := Default()
		want.Gemini.APIKey = "X"
		want.Gemini.ModelName = "m"
		require.Equal(t, want, *cfg)

		reloaded, err := NewStore(filepath.Dir(store.Path()), log.New(io.Discard)).Load(nil)
		require.NoError(t, err)
		require.Equal(t, want, *reloaded)
	})

	t.Run("every legacy field", func(t *testing.T) {
		store, _ := newTestStore(t)
		writeFile(t, store.Path(), `{
    "api_key": "X",
    "model_name": "gemini-1.5-pro",
    "proxy": "http://proxy:3128",
    "system_instruction": "talk like a pirate",
    "generation_config": {
        "temperature": 0.1,
        "top_p": 0.5,
        "top_k": 3,
        "maxOutputTokens": 2048
    }
}`)

		cfg, err := store.Load(nil)
		require.NoError(t, err)
		require.Equal(t, "gemini", cfg.Provider)
		require.Equal(t, "http://proxy:3128", cfg.Proxy)
		require.Equal(t, GeminiConfig{
			APIKey:            "X",
			ModelName:         "gemini-1.5-pro",
			SystemInstruction: "talk like a pirate",
			GenerationConfig: GenerationConfig{
				Temperature:     0.1,
				TopP:            0.5,
				TopK:            3,
				MaxOutputTokens: 2048,
			},
		}, cfg.Gemini)
		require.Equal(t, Default().OpenAI, cfg.OpenAI)

		migrated := readFile(t, store.Path())
		require.Contains(t, migrated, `"provider": "gemini"`)
		require.Contains(t, migrated, `"max_output_tokens": 2048`)
		require.NotContains(t, migrated, "maxOutputTokens")
		require.Contains(t, migrated, "\n    \"gemini_config\": {\n        \"api_key\": \"X\"")

		_, err = store.Load(nil)
		require.NoError(t, err)
		require.Equal(t, migrated, readFile(t, store.Path()), "second load is a no-op")
	})

	t.Run("keeps unknown members", func(t *testing.T) {
		store, _ := newTestStore(t)
		writeFile(t, store.Path(), `{
    "api_key": "X",
    "theme": "dark",
    "my.key": [1, 2],
    "generation_config": {"maxOutputTokens": 5, "seed": 7}
}`)

		cfg, err := store.Load(nil)
		require.NoError(t, err)
		require.Equal(t, int64(5), cfg.Gemini.GenerationConfig.MaxOutputTokens)

		var migrated struct {
			Theme  string `json:"theme"`
			MyKey  []int  `json:"my.key"`
			Gemini struct {
				GenerationConfig map[string]float64 `json:"generation_config"`
			} `json:"gemini_config"`
			OpenAI map[string]any `json:"openai_config"`
		}
		content := readFile(t, store.Path())
		require.NoError(t, json.Unmarshal([]byte(content), &migrated))
		require.Equal(t, "dark", migrated.Theme)
		require.Equal(t, []int{1, 2}, migrated.MyKey)
		require.Equal(t, map[string]float64{
			"temperature":       0.7,
			"top_p":             0.9,
			"top_k":             40,
			"max_output_tokens": 5,
			"seed":              7,
		}, migrated.Gemini.GenerationConfig)
		require.NotEmpty(t, migrated.OpenAI)
		require.True(t, strings.HasPrefix(content, "{\n    \"provider\""), content)

		_, err = store.Load(nil)
		require.NoError(t, err)
		require.Equal(t, content, readFile(t, store.Path()), "second load is a no-op")
	})

	t.Run("same layout as save", func(t *testing.T) {
		store, _ := newTestStore(t)
		writeFile(t, store.Path(), `{"api_key":"X"}`)
		cfg, err := store.Load(nil)
		require.NoError(t, err)

		other, _ := newTestStore(t)
		require.NoError(t, os.MkdirAll(filepath.Dir(other.Path()), 0o700))
		require.NoError(t, other.Save(cfg))
		require.Equal(t, readFile(t, other.Path()), readFile(t, store.Path()))
	})

	t.Run("removes stale backup", func(t *testing.T) {
		store, dir := newTestStore(t)
		writeFile(t, store.Path(), `{"api_key":"X"}`)
		writeFile(t, filepath.Join(dir, LegacyKeyName+BackupSuffix), "old")

		_, err := store.Load(nil)
		require.NoError(t, err)
		require.NoFileExists(t, filepath.Join(dir, LegacyKeyName+BackupSuffix))
	})
}

func TestLoadFirstRun(t *testing.T) {
	t.Run("non interactive", func(t *testing.T) {
		store, dir := newTestStore(t)
		cfg, err := store.Load(nil)
		require.ErrorIs(t, err, ErrNotReady)
		require.Nil(t, cfg)
		require.DirExists(t, dir)
		require.NoFileExists(t, store.Path())
	})

	t.Run("gemini", func(t *testing.T) {
		store, _ := newTestStore(t)
		p := &fakePrompter{provider: "gemini", key: " g-key "}
		cfg, err := store.Load(p)
		require.NoError(t, err)
		require.Equal(t, []string{"provider", "key:gemini"}, p.asked)
		require.Equal(t, "gemini", cfg.Provider)
		require.Equal(t, "g-key", cfg.Gemini.APIKey)
		require.FileExists(t, store.Path())
	})

	t.Run("openai", func(t *testing.T) {
		store, _ := newTestStore(t)
		cfg, err := store.Load(&fakePrompter{provider: "openai", key: "sk-key"})
		require.NoError(t, err)
		require.Equal(t, "openai", cfg.Provider)
		require.Equal(t, "sk-key", cfg.OpenAI.APIKey)
		require.Empty(t, cfg.Gemini.APIKey)
	})

	t.Run("empty key", func(t *testing.T) {
		store, _ := newTestStore(t)
		_, err := store.Load(&fakePrompter{provider: "gemini", key: "   "})
		require.ErrorIs(t, err, ErrEmptyKey)
		require.NoFileExists(t, store.Path())
	})

	t.Run("prompt aborted", func(t *testing.T) {
		store, _ := newTestStore(t)
		aborted := errors.New("user aborted")
		_, err := store.Load(&fakePrompter{err: aborted})
		require.ErrorIs(t, err, aborted)
		require.NoFileExists(t, store.Path())
	})

	t.Run("legacy key skips prompt", func(t *testing.T) {
		store, dir := newTestStore(t)
		writeFile(t, filepath.Join(dir, LegacyKeyName), "legacy")
		p := &fakePrompter{provider: "openai", key: "sk-key"}
		cfg, err := store.Load(p)
		require.NoError(t, err)
		require.Empty(t, p.asked)
		require.Equal(t, "legacy", cfg.Gemini.APIKey)
	})

	t.Run("removes stale backup", func(t *testing.T) {
		store, dir := newTestStore(t)
		backup := filepath.Join(dir, LegacyKeyName+BackupSuffix)
		writeFile(t, backup, "old")
		_, err := store.Load(&fakePrompter{provider: "gemini", key: "new"})
		require.NoError(t, err)
		require.NoFileExists(t, backup)
	})
}

func TestRemove(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Remove(), "missing file")

	_, err := store.Load(&fakePrompter{provider: "gemini", key: "k"})
	require.NoError(t, err)
	require.NoError(t, store.Remove())
	require.NoFileExists(t, store.Path())

	_, err = store.Load(nil)
	require.ErrorIs(t, err, ErrNotReady)
}

func TestSaveFormat(t *testing.T) {
	store, _ := newTestStore(t)
	cfg := Default()
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o700))
	require.NoError(t, store.Save(&cfg))

	content := readFile(t, store.Path())
	require.True(t, len(content) > 2 && content[:6] == "{\n    ")
	require.Equal(t, byte('\n'), content[len(content)-1])

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
