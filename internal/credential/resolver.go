package credential

import (
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/optiq-dev/optiq/internal/config"
	"github.com/optiq-dev/optiq/internal/provider"
)

var envVars = map[provider.Provider]string{
	provider.OpenAI:    "OPENAI_API_KEY",
	provider.Anthropic: "ANTHROPIC_API_KEY",
	provider.Google:    "GEMINI_API_KEY",
	provider.XAI:       "XAI_API_KEY",
	provider.DeepSeek:  "DEEPSEEK_API_KEY",
}

// EnvVar returns the environment variable consulted for a provider.
func EnvVar(p provider.Provider) string {
	return envVars[p]
}

// ResolverOptions configures a Resolver. Zero-value fields fall back to
// the process environment and the loaded config.
type ResolverOptions struct {
	// SecureStore is consulted only when UseSecureStore is true.
	SecureStore    Store
	UseSecureStore bool

	LookupEnv   func(key string) (string, bool)
	ConfigValue func(key string) (string, bool)
	Logger      *zap.Logger
}

// Resolver finds the credential to use for a provider. Resolution is
// side-effect free and safe to call concurrently.
type Resolver struct {
	secureStore    Store
	useSecureStore bool
	lookupEnv      func(key string) (string, bool)
	configValue    func(key string) (string, bool)
	logger         *zap.Logger
}

// NewResolver builds a resolver from options.
func NewResolver(opts ResolverOptions) *Resolver {
	lookupEnv := opts.LookupEnv
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	configValue := opts.ConfigValue
	if configValue == nil {
		configValue = config.GetConfig
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		secureStore:    opts.SecureStore,
		useSecureStore: opts.UseSecureStore,
		lookupEnv:      lookupEnv,
		configValue:    configValue,
		logger:         logger,
	}
}

// Resolve returns the credential for a provider, first hit wins:
// explicit override, provider environment variable, secure store (only
// when opted in), then the config file entry. An explicit override is
// never shadowed by a stored credential.
func (r *Resolver) Resolve(p provider.Provider, explicit string) Credential {
	if value := strings.TrimSpace(explicit); value != "" {
		return r.found(p, Credential{Value: value, Source: SourceExplicit})
	}

	if envVar := EnvVar(p); envVar != "" {
		if value, ok := r.lookupEnv(envVar); ok && strings.TrimSpace(value) != "" {
			return r.found(p, Credential{Value: strings.TrimSpace(value), Source: SourceEnvironment})
		}
	}

	if r.useSecureStore && r.secureStore != nil {
		value, err := r.secureStore.Get(p)
		if err != nil {
			r.logger.Warn("secure store lookup failed",
				zap.String("provider", p.String()), zap.Error(err))
		} else if strings.TrimSpace(value) != "" {
			return r.found(p, Credential{Value: strings.TrimSpace(value), Source: SourceSecureStore})
		}
	}

	if value, ok := r.configValue(configKey(p)); ok && strings.TrimSpace(value) != "" {
		return r.found(p, Credential{Value: strings.TrimSpace(value), Source: SourceFile})
	}

	return Credential{Source: SourceNone}
}

func (r *Resolver) found(p provider.Provider, cred Credential) Credential {
	r.logger.Debug("credential resolved",
		zap.String("provider", p.String()),
		zap.String("source", string(cred.Source)),
		zap.String("key", cred.Masked()))
	return cred
}
