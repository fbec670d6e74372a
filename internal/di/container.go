// Package di provides dependency injection configuration for the ReadShelf
// engine.
package di

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/readshelfapp/readshelf-server/internal/di/providers"
	"github.com/readshelfapp/readshelf-server/internal/insights"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideActor)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSessionStore)

	// Search layer
	do.Provide(injector, providers.ProvideBooksClient)
	do.Provide(injector, providers.ProvideSearchController)
	do.Provide(injector, providers.ProvideNoteIndex)
	do.Provide(injector, providers.ProvideInsightsService)

	// Mutation layer
	do.Provide(injector, providers.ProvideCoordinator)
	do.Provide(injector, providers.ProvideConfirmer)

	// Views and services
	do.Provide(injector, providers.ProvideCatalogService)
	do.Provide(injector, providers.ProvideBookView)
	do.Provide(injector, providers.ProvideFeedView)

	return injector
}

// Bootstrap triggers lazy initialization of the core services and brings
// the note index in line with the store.
func Bootstrap(ctx context.Context, injector *do.RootScope) error {
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SessionStoreHandle](injector); err != nil {
		return err
	}

	insightsService, err := do.Invoke[*insights.Service](injector)
	if err != nil {
		return err
	}
	return insightsService.Rebuild(ctx)
}
