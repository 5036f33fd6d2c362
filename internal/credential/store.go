package credential

import (
	"errors"
	"fmt"
	"strings"

	"github.com/optiq-dev/optiq/internal/config"
	"github.com/optiq-dev/optiq/internal/provider"
)

var ErrEmptyValue = errors.New("credential value is required")

// Store persists credentials keyed by provider. Implementations may be
// backed by a config file or an OS secret store; the resolver only ever
// reads through this interface.
type Store interface {
	Get(p provider.Provider) (string, error)
	Set(p provider.Provider, value string) error
	Delete(p provider.Provider) error
}

// FileStore keeps credentials in the global config file under
// providers.<name>.api_key.
type FileStore struct{}

var _ Store = FileStore{}

func (FileStore) Get(p provider.Provider) (string, error) {
	value, ok := config.GetConfig(configKey(p))
	if !ok {
		return "", nil
	}
	return strings.TrimSpace(value), nil
}

func (FileStore) Set(p provider.Provider, value string) error {
	if strings.TrimSpace(value) == "" {
		return ErrEmptyValue
	}
	return config.SetConfig(configKey(p), strings.TrimSpace(value))
}

func (FileStore) Delete(p provider.Provider) error {
	return config.DeleteConfig(configKey(p))
}

func configKey(p provider.Provider) string {
	return fmt.Sprintf("providers.%s.api_key", p)
}
