package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dephub/versionguard/guard"
)

// fakeReaders serves fixed check inputs.
type fakeReaders struct {
	declared, tag, title string
}

func (f fakeReaders) DeclaredVersion(ctx context.Context) (string, error) {
	return f.declared, ctx.Err()
}

func (f fakeReaders) LatestTag(ctx context.Context) (string, error) {
	return f.tag, ctx.Err()
}

func (f fakeReaders) PullRequestTitle(ctx context.Context, _ int) (string, error) {
	return f.title, ctx.Err()
}

func (f fakeReaders) PackageName(context.Context) (string, error) {
	return "example-package", nil
}

// fakeRegistry reports every release as published or not.
type fakeRegistry bool

func (f fakeRegistry) Published(context.Context, string, string) (bool, error) {
	return bool(f), nil
}

func (f fakeReaders) options() []guard.Option {
	return []guard.Option{guard.WithManifestReader(f), guard.WithTagReader(f), guard.WithTitleReader(f)}
}

func envLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

var prEnv = map[string]string{
	guard.EnvRef:        "refs/pull/123/merge",
	guard.EnvToken:      "fake_token",
	guard.EnvRepository: "owner/repo",
}

func TestExecute_Match(t *testing.T) {
	var out bytes.Buffer
	readers := fakeReaders{declared: "1.2.4", tag: "v1.2.3", title: "[patch] fix"}

	code := execute(context.Background(), []string{"--log-level", "info"}, &out, envLookup(prEnv), readers.options()...)
	assert.Equal(t, 0, code)
	assert.Equal(t, "[INFO]  NEXT VERSION MATCHES pyproject.toml VERSION: 1.2.4\n", out.String())
}

func TestExecute_Mismatch(t *testing.T) {
	var out bytes.Buffer
	readers := fakeReaders{declared: "1.2.3", tag: "v1.2.3", title: "[patch] fix"}

	code := execute(context.Background(), []string{"--log-level", "info"}, &out, envLookup(prEnv), readers.options()...)
	assert.Equal(t, 1, code)

	expected := "[ERROR]\n" +
		"[ERROR]  Version value in pyproject.toml does not match expected version\n" +
		"[ERROR]  Declared version      : 1.2.3\n" +
		"[ERROR]  Next expected version : 1.2.4\n" +
		"[ERROR]  Aborting.\n" +
		"[ERROR]\n"
	assert.Equal(t, expected, out.String())
}

func TestExecute_AlreadyPublished(t *testing.T) {
	var out bytes.Buffer
	readers := fakeReaders{declared: "1.3.0", tag: "v1.2.3", title: "[minor] feature"}
	opts := append(readers.options(), guard.WithRegistry(fakeRegistry(true)))

	code := execute(context.Background(), []string{"--log-level", "info", "--registry-check"}, &out, envLookup(prEnv), opts...)
	assert.Equal(t, 1, code)

	expected := "[ERROR]\n" +
		"[ERROR]  Version 1.3.0 of example-package is already published on PyPI\n" +
		"[ERROR]  Aborting.\n" +
		"[ERROR]\n"
	assert.Equal(t, expected, out.String())
}

func TestExecute_DebugOutputByDefault(t *testing.T) {
	var out bytes.Buffer
	readers := fakeReaders{declared: "1.0.0", tag: "v0.0.1", title: "[major] breaking"}

	code := execute(context.Background(), nil, &out, envLookup(prEnv), readers.options()...)
	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "[DEBUG]  previous tag version : 0.0.1\n")
	assert.Contains(t, out.String(), "[DEBUG]  next tag version     : 1.0.0\n")
}

func TestExecute_SkipOnTrunk(t *testing.T) {
	var out bytes.Buffer

	code := execute(context.Background(), []string{"--trunk", "main"}, &out, envLookup(map[string]string{guard.EnvRef: "refs/heads/main"}))
	assert.Equal(t, 0, code)
	assert.Equal(t, "[INFO]  main branch detected\n", out.String())
}

func TestExecute_MissingToken(t *testing.T) {
	var out bytes.Buffer

	code := execute(context.Background(), nil, &out, envLookup(map[string]string{
		guard.EnvRef:        "refs/pull/1/merge",
		guard.EnvRepository: "owner/repo",
	}))
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "[ERROR]  env var not found: GITHUB_TOKEN\n")
	assert.Contains(t, out.String(), "GITHUB_TOKEN: ${{ secrets.GITHUB_TOKEN }}")
}

func TestExecute_MissingDirective(t *testing.T) {
	var out bytes.Buffer
	readers := fakeReaders{declared: "1.0.0", tag: "v1.0.0", title: "Update docs"}

	code := execute(context.Background(), nil, &out, envLookup(prEnv), readers.options()...)
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "[ERROR]  One of the following - [major], [minor], [patch], [notag] - not found in PR title\n")
}

func TestExecute_Interrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	code := execute(ctx, nil, &out, envLookup(prEnv), fakeReaders{}.options()...)
	assert.Equal(t, 0, code)
	assert.Equal(t, " \n", out.String())
}

// interruptingTitle cancels the run right after the title is read.
type interruptingTitle struct {
	fakeReaders
	cancel context.CancelFunc
}

func (r interruptingTitle) PullRequestTitle(context.Context, int) (string, error) {
	r.cancel()
	return r.title, nil
}

func TestExecute_InterruptedAfterMismatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	readers := fakeReaders{declared: "1.2.3", tag: "v1.2.3", title: "[patch] fix"}
	titles := interruptingTitle{fakeReaders: readers, cancel: cancel}

	var out bytes.Buffer
	code := execute(ctx, []string{"--log-level", "info"}, &out, envLookup(prEnv),
		guard.WithManifestReader(readers), guard.WithTagReader(readers), guard.WithTitleReader(titles))
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "[ERROR]  Version value in pyproject.toml does not match expected version\n")
	assert.NotContains(t, out.String(), " \n")
}

func TestExecute_UsageErrors(t *testing.T) {
	for name, args := range map[string][]string{
		"unknown flag":   {"--nope"},
		"bad log level":  {"--log-level", "loud"},
		"unexpected arg": {"extra"},
		"missing config": {"--config", filepath.Join(os.TempDir(), "versionguard-does-not-exist.yaml")},
	} {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			code := execute(context.Background(), args, &out, envLookup(prEnv), fakeReaders{}.options()...)
			assert.Equal(t, 1, code)
			assert.Contains(t, out.String(), "[ERROR]  ")
		})
	}
}

func TestBuildConfig_Layering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "versionguard.yaml")
	require.NoError(t, os.WriteFile(path, []byte("trunk: develop\nmanifest: composer.json\ntagMatch: release-*\n"), 0o600))

	fv := &flagValues{}
	fs := pflag.NewFlagSet("versionguard", pflag.ContinueOnError)
	bindFlags(fs, fv)
	require.NoError(t, fs.Parse([]string{"--config", path, "--manifest", "package.json", "--manifest-source", "github"}))

	cfg, err := buildConfig(fs, fv, envLookup(map[string]string{
		guard.EnvManifest: "pyproject.toml",
		guard.EnvTagMatch: "v*",
		guard.EnvRef:      "refs/pull/5/merge",
	}))
	require.NoError(t, err)

	assert.Equal(t, "develop", cfg.TrunkBranch)             // file
	assert.Equal(t, "v*", cfg.TagMatch)                     // env over file
	assert.Equal(t, "package.json", cfg.ManifestPath)       // flag over env
	assert.Equal(t, guard.SourceGitHub, cfg.ManifestSource) // flag
	assert.Equal(t, "refs/pull/5/merge", cfg.Ref)
	assert.Equal(t, "debug", cfg.LogLevel)
}
