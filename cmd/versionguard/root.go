package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dephub/versionguard/guard"
	"github.com/dephub/versionguard/logging"
)

// errCheckFailed is returned once the failure has already been reported.
var errCheckFailed = errors.New("version check failed")

// flagValues holds the raw flag values; only flags set on the command line override config and env.
type flagValues struct {
	configFile     string
	ref            string
	trunk          string
	repository     string
	manifest       string
	manifestType   string
	manifestSource string
	apiURL         string
	tagMatch       string
	workDir        string
	logLevel       string
	registryCheck  bool
	registryURL    string
}

func bindFlags(fs *pflag.FlagSet, fv *flagValues) {
	fs.StringVar(&fv.configFile, "config", "", "YAML config file")
	fs.StringVar(&fv.ref, "ref", "", "git ref being checked (default $"+guard.EnvRef+")")
	fs.StringVar(&fv.trunk, "trunk", "", "trunk branch the check is skipped on (default \"master\")")
	fs.StringVar(&fv.repository, "repository", "", "GitHub repository as owner/repo (default $"+guard.EnvRepository+")")
	fs.StringVar(&fv.manifest, "manifest", "", "manifest path declaring the version (default \"pyproject.toml\")")
	fs.StringVar(&fv.manifestType, "manifest-type", "", "manifest format: pyproject, composer or npm (default: detected from the file name)")
	fs.StringVar(&fv.manifestSource, "manifest-source", "", "read the manifest from the local checkout or from github (default \"local\")")
	fs.StringVar(&fv.apiURL, "api-url", "", "GitHub API url (default $"+guard.EnvAPIURL+" or https://api.github.com)")
	fs.StringVar(&fv.tagMatch, "tag-match", "", "glob release tags must match (default \"v*.*.*\")")
	fs.StringVarP(&fv.workDir, "workdir", "C", "", "repository working directory")
	fs.StringVar(&fv.logLevel, "log-level", "", "log level: debug, info, warn, error (default \"debug\")")
	fs.BoolVar(&fv.registryCheck, "registry-check", false, "fail when the declared version is already published on PyPI or Packagist")
	fs.StringVar(&fv.registryURL, "registry-url", "", "package registry url (default: the public PyPI or Packagist)")
}

// buildConfig layers defaults, the config file, the environment and explicitly set flags.
func buildConfig(fs *pflag.FlagSet, fv *flagValues, lookup func(string) (string, bool)) (guard.Config, error) {
	cfg := guard.DefaultConfig()
	if fv.configFile != "" {
		var err error
		if cfg, err = guard.LoadConfigFile(fv.configFile); err != nil {
			return guard.Config{}, err
		}
	}

	cfg.ApplyEnv(lookup)

	override := func(name string, dst *string, v string) {
		if fs.Changed(name) {
			*dst = v
		}
	}
	override("ref", &cfg.Ref, fv.ref)
	override("trunk", &cfg.TrunkBranch, fv.trunk)
	override("repository", &cfg.Repository, fv.repository)
	override("manifest", &cfg.ManifestPath, fv.manifest)
	override("api-url", &cfg.APIURL, fv.apiURL)
	override("tag-match", &cfg.TagMatch, fv.tagMatch)
	override("workdir", &cfg.WorkDir, fv.workDir)
	override("log-level", &cfg.LogLevel, fv.logLevel)
	override("registry-url", &cfg.RegistryURL, fv.registryURL)
	if fs.Changed("registry-check") {
		cfg.RegistryCheck = fv.registryCheck
	}
	if fs.Changed("manifest-type") {
		cfg.ManifestType = guard.ManifestType(fv.manifestType)
	}
	if fs.Changed("manifest-source") {
		cfg.ManifestSource = guard.ManifestSource(fv.manifestSource)
	}

	return cfg, nil
}

// NewRootCmd creates the versionguard command writing all output to out.
func NewRootCmd(out io.Writer, lookup func(string) (string, bool), opts ...guard.Option) *cobra.Command {
	fv := &flagValues{}

	cmd := &cobra.Command{
		Use:   "versionguard",
		Short: "Check that a pull request declares the expected next version",
		Long: `versionguard compares the version declared in the project manifest with the
version expected for the pull request: the latest v<major>.<minor>.<patch> git
tag bumped according to the marker in the pull request title.

Title markers (case-insensitive, first match wins):
  [major]  bump major, reset minor and patch
  [minor]  bump minor, reset patch
  [patch]  bump patch
  [notag]  keep the current version`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd.Flags(), fv, lookup)
			if err != nil {
				return err
			}

			level, err := logging.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			logger := logging.New(out, level)

			ctx := cmd.Context()
			res, err := guard.New(cfg, append([]guard.Option{guard.WithLogger(logger)}, opts...)...).Run(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				report(logger, guard.Diagnostic(err))
				return errCheckFailed
			}

			if res.ExitCode() != 0 {
				report(logger, res.Diagnostic())
				return errCheckFailed
			}
			return nil
		},
	}
	cmd.Version = Version
	cmd.SetOut(out)
	cmd.SetErr(out)
	bindFlags(cmd.Flags(), fv)

	return cmd
}

// report writes the error banner: an empty [ERROR] line, one line per message, an empty [ERROR] line.
func report(logger *slog.Logger, lines []string) {
	logger.Error("")
	for _, l := range lines {
		logger.Error(l)
	}
	logger.Error("")
}

// execute runs the command and maps its outcome to a process exit code.
func execute(ctx context.Context, args []string, out io.Writer, lookup func(string) (string, bool), opts ...guard.Option) int {
	cmd := NewRootCmd(out, lookup, opts...)
	if args == nil {
		// cobra falls back to os.Args on nil.
		args = []string{}
	}
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errCheckFailed):
		// Already reported, even if an interrupt followed.
		return 1
	case ctx.Err() != nil:
		// Interrupted: nothing is persisted, leave quietly.
		fmt.Fprintln(out, " ")
		return 0
	}

	report(logging.New(out, nil), []string{err.Error()})
	return 1
}
