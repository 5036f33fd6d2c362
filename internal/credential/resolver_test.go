package credential

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optiq-dev/optiq/internal/provider"
)

type mapStore map[provider.Provider]string

func (s mapStore) Get(p provider.Provider) (string, error) { return s[p], nil }
func (s mapStore) Set(p provider.Provider, v string) error { s[p] = v; return nil }
func (s mapStore) Delete(p provider.Provider) error        { delete(s, p); return nil }

type failingStore struct{}

func (failingStore) Get(provider.Provider) (string, error) {
	return "", errors.New("keychain locked")
}
func (failingStore) Set(provider.Provider, string) error { return nil }
func (failingStore) Delete(provider.Provider) error      { return nil }

func newTestResolver(env, file string, store Store, useStore bool) *Resolver {
	return NewResolver(ResolverOptions{
		SecureStore:    store,
		UseSecureStore: useStore,
		LookupEnv: func(key string) (string, bool) {
			if env == "" {
				return "", false
			}
			return env, true
		},
		ConfigValue: func(key string) (string, bool) {
			if file == "" {
				return "", false
			}
			return file, true
		},
	})
}

// Explicit overrides must win over every combination of the other three
// sources being populated or empty.
func TestResolveExplicitAlwaysWins(t *testing.T) {
	for mask := 0; mask < 8; mask++ {
		env, file := "", ""
		store := mapStore{}
		if mask&1 != 0 {
			env = "sk-env-value-000001"
		}
		if mask&2 != 0 {
			store[provider.OpenAI] = "sk-store-value-0001"
		}
		if mask&4 != 0 {
			file = "sk-file-value-00001"
		}

		r := newTestResolver(env, file, store, true)
		cred := r.Resolve(provider.OpenAI, "sk-explicit-000001")

		require.Equal(t, SourceExplicit, cred.Source, "mask=%d", mask)
		assert.Equal(t, "sk-explicit-000001", cred.Value)
	}
}

func TestResolvePriorityOrder(t *testing.T) {
	tests := []struct {
		name       string
		env        string
		store      string
		file       string
		useStore   bool
		wantSource Source
		wantValue  string
	}{
		{"env beats store and file", "sk-env", "sk-store", "sk-file", true, SourceEnvironment, "sk-env"},
		{"store beats file when opted in", "", "sk-store", "sk-file", true, SourceSecureStore, "sk-store"},
		{"store skipped without opt-in", "", "sk-store", "sk-file", false, SourceFile, "sk-file"},
		{"file is the last resort", "", "", "sk-file", true, SourceFile, "sk-file"},
		{"nothing resolves to none", "", "", "", true, SourceNone, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mapStore{}
			if tt.store != "" {
				store[provider.Anthropic] = tt.store
			}
			r := newTestResolver(tt.env, tt.file, store, tt.useStore)
			cred := r.Resolve(provider.Anthropic, "")

			assert.Equal(t, tt.wantSource, cred.Source)
			assert.Equal(t, tt.wantValue, cred.Value)
			assert.Equal(t, tt.wantSource != SourceNone, cred.Resolved())
		})
	}
}

func TestResolveSecureStoreFailureFallsThrough(t *testing.T) {
	r := newTestResolver("", "sk-file-fallback-01", failingStore{}, true)
	cred := r.Resolve(provider.Google, "")

	assert.Equal(t, SourceFile, cred.Source)
	assert.Equal(t, "sk-file-fallback-01", cred.Value)
}

func TestEnvVarPerProvider(t *testing.T) {
	for _, p := range provider.All() {
		assert.NotEmpty(t, EnvVar(p), "provider %s", p)
	}
	assert.Equal(t, "OPENAI_API_KEY", EnvVar(provider.OpenAI))
	assert.Empty(t, EnvVar(provider.Provider("unknown")))
}

func TestMasked(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"", ""},
		{"short", "*****"},
		{"sk-abcdefgh", "sk-******gh"},
		{"sk-1234567890abcdef", "sk-**************ef"},
	}

	for _, tt := range tests {
		cred := Credential{Value: tt.value, Source: SourceExplicit}
		assert.Equal(t, tt.want, cred.Masked(), "value %q", tt.value)
	}
}
