package guard

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dephub/versionguard/providers/api/packagist"
	"github.com/dephub/versionguard/providers/api/pip"
)

// Registry represents a package index a release can already be published on.
type Registry interface {
	// Published reports whether 'version' of package 'name' is already released.
	Published(ctx context.Context, name, version string) (bool, error)
}

// NameReader reads the name a package is published under.
// Manifest readers built by this package implement it.
type NameReader interface {
	PackageName(ctx context.Context) (string, error)
}

// registryNames maps manifest formats to the index their packages are published on.
var registryNames = map[ManifestType]string{
	PyProjectType: "PyPI",
	ComposerType:  "Packagist",
}

// NewRegistry constructs the Registry packages of manifest format typ are published on.
//
// If httpClient or URL is nil - the public index and http.DefaultClient are used.
func NewRegistry(typ ManifestType, httpClient *http.Client, URL *url.URL) (Registry, error) {
	switch typ {
	case PyProjectType:
		return pip.NewPyPiClient(httpClient, URL), nil
	case ComposerType:
		return packagist.NewClient(httpClient, URL)
	}
	return nil, fmt.Errorf("registry check is not supported for %q manifests", typ)
}

// registryFor resolves the registry for the configured manifest.
func (c *Checker) registryFor() (Registry, string, error) {
	typ := c.cfg.ManifestType
	if typ == "" {
		var err error
		if typ, err = DetectManifestType(c.cfg.ManifestPath); err != nil {
			return nil, "", err
		}
	}

	name, ok := registryNames[typ]
	if !ok {
		name = string(typ)
	}
	if c.registry != nil {
		return c.registry, name, nil
	}

	var base *url.URL
	if c.cfg.RegistryURL != "" {
		var err error
		if base, err = url.Parse(c.cfg.RegistryURL); err != nil {
			return nil, "", fmt.Errorf("invalid registry url %q: %w", c.cfg.RegistryURL, err)
		}
	}

	reg, err := NewRegistry(typ, nil, base)
	if err != nil {
		return nil, "", err
	}
	return reg, name, nil
}

// checkPublished looks the declared release up on the package registry.
func (c *Checker) checkPublished(ctx context.Context, res *Result) error {
	reg, regName, err := c.registryFor()
	if err != nil {
		return &CollaboratorError{Collaborator: CollaboratorRegistry, Err: err}
	}

	namer, ok := c.manifest.(NameReader)
	if !ok {
		return &CollaboratorError{Collaborator: CollaboratorRegistry, Err: fmt.Errorf("manifest reader can't provide the package name")}
	}
	pkg, err := namer.PackageName(ctx)
	if err != nil {
		return &CollaboratorError{Collaborator: CollaboratorRegistry, Err: err}
	}

	published, err := reg.Published(ctx, pkg, res.Declared)
	if err != nil {
		return &CollaboratorError{Collaborator: CollaboratorRegistry, Err: err}
	}

	res.Package = pkg
	res.Registry = regName
	c.logger.Debug(fmt.Sprintf("%s %s published on %s : %t", pkg, res.Declared, regName, published))
	if published {
		res.Outcome = OutcomePublished
	}
	return nil
}
