package aggregate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/retry"
)

const defaultTag = "latest"

// RegistryConfig describes the OCI registry combiner modules are
// distributed through.
type RegistryConfig struct {
	Authenticate bool
	Token        string
	Username     string
	Password     string
	RegistryURL  string
}

// FetchModule pulls a combiner wasm module published as an OCI
// artifact. The module binary is expected to be the largest layer of
// the manifest.
func (c RegistryConfig) FetchModule(ctx context.Context, ref string) ([]byte, error) {
	repo, err := remote.NewRepository(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to create repository for %s: %w", ref, err)
	}

	c.setupAuthentication(repo)

	manifest, err := c.fetchManifest(ctx, repo, ref)
	if err != nil {
		return nil, err
	}

	layer, err := largestLayer(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to find module layer for %s: %w", ref, err)
	}

	reader, err := repo.Fetch(ctx, layer)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch layer for %s: %w", ref, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read layer for %s: %w", ref, err)
	}

	return data, nil
}

func (c RegistryConfig) setupAuthentication(repo *remote.Repository) {
	if !c.Authenticate {
		return
	}

	var cred auth.Credential
	switch {
	case c.Username != "" && c.Password != "":
		cred = auth.Credential{
			Username: c.Username,
			Password: c.Password,
		}
	case c.Token != "":
		cred = auth.Credential{
			AccessToken: c.Token,
		}
	}

	repo.Client = &auth.Client{
		Client:     retry.DefaultClient,
		Cache:      auth.NewCache(),
		Credential: auth.StaticCredential(c.RegistryURL, cred),
	}
}

func (c RegistryConfig) fetchManifest(ctx context.Context, repo *remote.Repository, ref string) (*ocispec.Manifest, error) {
	descriptor, err := repo.Resolve(ctx, defaultTag)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manifest for %s: %w", ref, err)
	}

	reader, err := repo.Fetch(ctx, descriptor)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manifest for %s: %w", ref, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest for %s: %w", ref, err)
	}

	var manifest ocispec.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest for %s: %w", ref, err)
	}

	return &manifest, nil
}

func largestLayer(manifest *ocispec.Manifest) (ocispec.Descriptor, error) {
	var largest ocispec.Descriptor
	var maxSize int64

	for _, layer := range manifest.Layers {
		if layer.Size > maxSize {
			maxSize = layer.Size
			largest = layer
		}
	}

	if maxSize == 0 {
		return ocispec.Descriptor{}, errors.New("manifest has no layers")
	}

	return largest, nil
}
