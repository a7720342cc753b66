package parsers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dephub/versionguard/providers/fetchers"
)

func TestComposerParser_DeclaredVersion(t *testing.T) {
	bf := fetchers.ByteMapFetcher{Files: map[string][]byte{
		"composer.json": []byte(`{
			"name": "laravel/laravel",
			"description": "The Laravel Framework.",
			"version": "5.7.1",
			"require": {
				"php": ">=7.1.3",
				"laravel/framework": "5.7.*"
			}
		}`),
	}}
	parser := NewComposerParser(bf, "")

	v, err := parser.DeclaredVersion(context.Background())
	if err != nil {
		t.Fatalf("unexpected error on composer version call : %v", err)
	}
	if v != "5.7.1" {
		t.Errorf("expected version '5.7.1', got %q", v)
	}
}

func TestNpmParser_DeclaredVersion(t *testing.T) {
	bf := fetchers.ByteMapFetcher{Files: map[string][]byte{
		"web/package.json": []byte(`{"name": "web", "version": "v2.0.0", "private": true}`),
	}}
	parser := NewNpmParser(bf, "web/package.json")

	v, err := parser.DeclaredVersion(context.Background())
	if err != nil {
		t.Fatalf("unexpected error on npm version call : %v", err)
	}
	// Declared versions are returned exactly as written.
	if v != "v2.0.0" {
		t.Errorf("expected version 'v2.0.0', got %q", v)
	}
}

func TestJSONManifestParsers_Errors(t *testing.T) {
	// Table test cases
	cases := []struct {
		Name   string
		Parser func(fetchers.FileFetcher) ManifestParser
		Files  map[string][]byte
		Err    error
		Msg    string
	}{
		{"composer missing", composerDefault, map[string][]byte{"blablabla": []byte("{}")}, ErrFileNotFound, ""},
		{"composer no version", composerDefault, map[string][]byte{"composer.json": []byte("{}")}, ErrVersionNotDeclared, ""},
		{"composer broken", composerDefault, map[string][]byte{"composer.json": []byte("broken")}, nil, "unable to parse composer.json content"},
		{"npm missing", npmDefault, map[string][]byte{}, ErrFileNotFound, ""},
		{"npm numeric version", npmDefault, map[string][]byte{"package.json": []byte(`{"version": 1}`)}, nil, "unable to parse package.json content"},
	}

	for _, v := range cases {
		t.Run(v.Name, func(t *testing.T) {
			parser := v.Parser(fetchers.ByteMapFetcher{Files: v.Files})

			ver, err := parser.DeclaredVersion(context.Background())
			if err == nil {
				t.Fatal("expected error, got none")
			}
			if v.Err != nil && !errors.Is(err, v.Err) {
				t.Errorf("expected %v, got %v", v.Err, err)
			}
			if v.Msg != "" && !strings.Contains(err.Error(), v.Msg) {
				t.Errorf("expected error containing %q, got %v", v.Msg, err)
			}
			if ver != "" {
				t.Errorf("expected empty version, got %q", ver)
			}
		})
	}
}

func composerDefault(f fetchers.FileFetcher) ManifestParser { return NewComposerParser(f, "") }

func npmDefault(f fetchers.FileFetcher) ManifestParser { return NewNpmParser(f, "") }

type failingFetcher struct{ err error }

func (f failingFetcher) FileContent(context.Context, string) ([]byte, error) { return nil, f.err }

func TestFetchManifest_WrapsFetcherErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewComposerParser(failingFetcher{boom}, "").DeclaredVersion(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped fetcher error, got %v", err)
	}
	if errors.Is(err, ErrFileNotFound) {
		t.Errorf("fetcher failure must not look like a missing file: %v", err)
	}
}

func TestJSONManifestParsers_PackageName(t *testing.T) {
	bf := fetchers.ByteMapFetcher{Files: map[string][]byte{
		"composer.json": []byte(`{"name": "laravel/laravel", "version": "5.7.1"}`),
		"package.json":  []byte(`{"version": "1.0.0"}`),
	}}

	name, err := NewComposerParser(bf, "").PackageName(context.Background())
	if err != nil {
		t.Fatalf("unexpected error on composer name call : %v", err)
	}
	if name != "laravel/laravel" {
		t.Errorf("expected name 'laravel/laravel', got %q", name)
	}

	_, err = NewNpmParser(bf, "").PackageName(context.Background())
	if !errors.Is(err, ErrNameNotDeclared) {
		t.Errorf("expected %v, got %v", ErrNameNotDeclared, err)
	}
}
