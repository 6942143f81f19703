package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/m-mizutani/cupnotifier/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// envFileSource reads a flag value from the file named by an environment
// variable, e.g. CUP_NOTIFIER_WEBHOOK_URL_FILE=/run/secrets/webhook.
// Surrounding whitespace of the file content is trimmed.
type envFileSource struct {
	key string
}

func (s *envFileSource) Lookup() (string, bool) {
	path, ok := os.LookupEnv(s.key)
	if !ok || path == "" {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

func (s *envFileSource) String() string {
	return fmt.Sprintf("file named by environment variable %q", s.key)
}

func (s *envFileSource) GoString() string {
	return fmt.Sprintf("&envFileSource{key:%q}", s.key)
}

// secretSources looks up env first, then the file named by env_FILE
func secretSources(env string) cli.ValueSourceChain {
	return cli.NewValueSourceChain(
		cli.EnvVar(env),
		&envFileSource{key: env + "_FILE"},
	)
}

// readSecretFile resolves a `<key>_file` entry of the config file
func readSecretFile(key, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read secret file",
			goerr.V("key", key),
			goerr.V("path", path),
			goerr.T(types.ErrTagConfig),
		)
	}
	return strings.TrimSpace(string(data)), nil
}
