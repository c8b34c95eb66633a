package services

import (
	portsrepo "github.com/SscSPs/supply_chain_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/supply_chain_app/internal/core/ports/services"
	portsstorage "github.com/SscSPs/supply_chain_app/internal/core/ports/storage"
	"github.com/SscSPs/supply_chain_app/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// blobs may be nil, in which case every location file load fails per the artifact's policy.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, blobs portsstorage.BlobStore) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	chainOpts := []ChainServiceOption{WithChainMaxDepth(cfg.ChainMaxDepth)}
	if repos.CountsCache != nil {
		chainOpts = append(chainOpts, WithCountsCache(repos.CountsCache))
	}
	container.Chain = NewChainService(repos.TransactionRepo, chainOpts...)
	container.Traceability = NewTraceabilityService(repos.TransactionRepo)

	artifactOpts := []ChainArtifactServiceOption{
		WithLocationFilePrefix(cfg.LocationFilePrefix),
		WithBundleArchivePrefix(cfg.BundleArchivePrefix),
	}
	if blobs != nil {
		artifactOpts = append(artifactOpts, WithBlobStore(blobs))
	}
	container.Artifact = NewChainArtifactService(container.Chain, repos.TransactionRepo, artifactOpts...)

	if repos.SeasonRepo != nil {
		container.Season = NewSeasonService(repos.SeasonRepo)
	}

	return container
}
