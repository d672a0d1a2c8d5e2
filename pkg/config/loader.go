package config

import (
	_ "embed"
	stderrors "errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/arthur-debert/devsync/pkg/conflicts"
	"github.com/arthur-debert/devsync/pkg/errors"
	"github.com/arthur-debert/devsync/pkg/logging"
	"github.com/arthur-debert/devsync/pkg/paths"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

// EnvPrefix prefixes configuration environment variables.
const EnvPrefix = "DEVSYNC_"

type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, stderrors.New("not implemented")
}

// LoadOptions selects the layers of a load.
type LoadOptions struct {
	// ProjectRoot holds .devsync.toml; empty skips the project layer.
	ProjectRoot string
	// UserConfig overrides the user file path; empty uses the XDG path.
	UserConfig string
	// SkipEnv ignores DEVSYNC_* variables.
	SkipEnv bool
	// Overrides are dotted keys applied last, e.g. from flags.
	Overrides map[string]interface{}
}

// Loaded is a configuration plus the files it came from.
type Loaded struct {
	*Config
	// Sources lists the configuration files that were read, in order.
	Sources []string
}

// Load reads the configuration for a project root.
func Load(projectRoot string) (*Loaded, error) {
	return LoadWithOptions(LoadOptions{ProjectRoot: projectRoot})
}

// LoadWithOptions reads every layer, decodes and validates the result.
func LoadWithOptions(opts LoadOptions) (*Loaded, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load defaults")
	}

	// 2. User and project files
	userPath := opts.UserConfig
	if userPath == "" {
		userPath = paths.UserConfigPath()
	}
	files := []string{userPath}
	if opts.ProjectRoot != "" {
		files = append(files, filepath.Join(opts.ProjectRoot, paths.ProjectConfigFile))
	}

	loaded := &Loaded{}
	for _, path := range files {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "cannot read %s", path)
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to load config from %s", path).
				WithDetail("path", path)
		}
		loaded.Sources = append(loaded.Sources, path)
		logger.Debug().Str("path", path).Msg("Loaded config file")
	}

	// 3. Environment
	if !opts.SkipEnv {
		if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load env vars")
		}
	}

	// 4. Explicit overrides
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to apply overrides")
		}
	}

	// 5. Unmarshal
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
				stringToPolicyHookFunc(),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigValid, "failed to unmarshal configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loaded.Config = &cfg
	return loaded, nil
}

// envKey maps DEVSYNC_INSTALL_CONFLICT_POLICY to install.conflict_policy:
// the first underscore separates the section from the key.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(s, "_", ".", 1)
}

var policyType = reflect.TypeOf(conflicts.Policy(""))

func stringToPolicyHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String || t != policyType {
			return data, nil
		}
		return conflicts.ParsePolicy(data.(string))
	}
}
