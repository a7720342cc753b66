package guard

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/dephub/versionguard/providers/git"
)

// Environment variables the configuration is read from.
const (
	EnvRef            = "GITHUB_REF"
	EnvToken          = "GITHUB_TOKEN"
	EnvRepository     = "GITHUB_REPOSITORY"
	EnvAPIURL         = "GITHUB_API_URL"
	EnvTrunk          = "VERSIONGUARD_TRUNK"
	EnvManifest       = "VERSIONGUARD_MANIFEST"
	EnvManifestType   = "VERSIONGUARD_MANIFEST_TYPE"
	EnvManifestSource = "VERSIONGUARD_MANIFEST_SOURCE"
	EnvTagMatch       = "VERSIONGUARD_TAG_MATCH"
	EnvLogLevel       = "VERSIONGUARD_LOG_LEVEL"
	EnvRegistryCheck  = "VERSIONGUARD_REGISTRY_CHECK"
	EnvRegistryURL    = "VERSIONGUARD_REGISTRY_URL"
)

// Config holds everything a check run needs to know about its environment.
// Secrets and per-run values (Token, Ref) are never read from config files.
type Config struct {
	// TrunkBranch is the branch the check is skipped on.
	TrunkBranch string `yaml:"trunk"`
	// Token authenticates GitHub API calls.
	Token string `yaml:"-"`
	// Repository is the '{owner}/{repo}' the pull request belongs to.
	Repository string `yaml:"repository"`
	// Ref is the git ref being built (e.g. 'refs/pull/123/merge').
	Ref string `yaml:"-"`
	// ManifestPath is the manifest location relative to WorkDir (or the repository root for github sources).
	ManifestPath string `yaml:"manifest"`
	// ManifestType selects the parser. Detected from ManifestPath when empty.
	ManifestType ManifestType `yaml:"manifestType"`
	// ManifestSource selects where the manifest is read from.
	ManifestSource ManifestSource `yaml:"manifestSource"`
	// APIURL overrides the GitHub API root (GitHub Enterprise).
	APIURL string `yaml:"apiURL"`
	// TagMatch is the glob release tags must match.
	TagMatch string `yaml:"tagMatch"`
	// WorkDir is the repository checkout. Empty means the current directory.
	WorkDir string `yaml:"workdir"`
	// LogLevel is the minimum severity written (debug, info, warn, error).
	LogLevel string `yaml:"logLevel"`
	// RegistryCheck fails the check when the declared version is already
	// published on the package registry (PyPI or Packagist).
	RegistryCheck bool `yaml:"registryCheck"`
	// RegistryURL overrides the registry root (mirrors, private repositories).
	RegistryURL string `yaml:"registryURL"`
}

// DefaultConfig returns the configuration used when nothing else is provided.
func DefaultConfig() Config {
	return Config{
		TrunkBranch:    "master",
		ManifestPath:   "pyproject.toml",
		ManifestSource: SourceLocal,
		TagMatch:       git.DefaultTagMatch,
		LogLevel:       "debug",
	}
}

// LoadConfigFile reads a YAML config file on top of DefaultConfig.
func LoadConfigFile(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config file: %w", err)
	}
	return ParseConfig(b)
}

// ParseConfig decodes YAML config content on top of DefaultConfig.
// Unknown keys are rejected.
func ParseConfig(b []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("unable to parse config file: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields with the non-empty environment values found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set(&c.Ref, EnvRef)
	set(&c.Token, EnvToken)
	set(&c.Repository, EnvRepository)
	set(&c.APIURL, EnvAPIURL)
	set(&c.TrunkBranch, EnvTrunk)
	set(&c.ManifestPath, EnvManifest)
	set(&c.TagMatch, EnvTagMatch)
	set(&c.LogLevel, EnvLogLevel)
	set(&c.RegistryURL, EnvRegistryURL)

	var typ, src, check string
	set(&typ, EnvManifestType)
	set(&src, EnvManifestSource)
	set(&check, EnvRegistryCheck)
	if typ != "" {
		c.ManifestType = ManifestType(typ)
	}
	if src != "" {
		c.ManifestSource = ManifestSource(src)
	}
	if check != "" {
		// Anything but a recognised true value disables the check.
		c.RegistryCheck, _ = strconv.ParseBool(check)
	}
}

// Validate checks the fields needed to decide whether the check applies at all.
func (c Config) Validate() error {
	var missing []string
	if c.Ref == "" {
		missing = append(missing, EnvRef)
	}
	if c.TrunkBranch == "" {
		missing = append(missing, EnvTrunk)
	}
	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	return nil
}

// validateInputs checks the fields needed to gather the check inputs.
func (c Config) validateInputs() error {
	cerr := &ConfigError{}
	if c.Token == "" {
		cerr.Missing = append(cerr.Missing, EnvToken)
	}
	if c.Repository == "" {
		cerr.Missing = append(cerr.Missing, EnvRepository)
	} else if _, _, err := ParseRepository(c.Repository); err != nil {
		cerr.Invalid = append(cerr.Invalid, err.Error())
	}
	if c.ManifestPath == "" {
		cerr.Missing = append(cerr.Missing, EnvManifest)
	}

	switch c.ManifestSource {
	case "", SourceLocal, SourceGitHub:
	default:
		cerr.Invalid = append(cerr.Invalid, fmt.Sprintf("unsupported manifest source %q", c.ManifestSource))
	}
	if c.ManifestType != "" && !c.ManifestType.supported() {
		cerr.Invalid = append(cerr.Invalid, fmt.Sprintf("unsupported manifest type %q", c.ManifestType))
	} else if c.RegistryCheck {
		typ := c.ManifestType
		if typ == "" {
			typ, _ = DetectManifestType(c.ManifestPath)
		}
		if _, ok := registryNames[typ]; typ != "" && !ok {
			cerr.Invalid = append(cerr.Invalid, fmt.Sprintf("registry check is not supported for %q manifests", typ))
		}
	}

	if len(cerr.Missing) > 0 || len(cerr.Invalid) > 0 {
		return cerr
	}
	return nil
}
