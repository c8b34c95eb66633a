package services

// ServiceContainer holds instances of all the application services.
// This is the main entry point for accessing service functionality and
// is used throughout the application, particularly in the handlers.
type ServiceContainer struct {
	Chain        ChainSvcFacade
	Traceability TraceabilitySvcFacade
	Artifact     ChainArtifactSvc
	Season       SeasonSvc // Nil when no SQL store is configured
}
