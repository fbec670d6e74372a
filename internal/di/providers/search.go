package providers

import (
	"net/http"

	"github.com/samber/do/v2"

	"github.com/readshelfapp/readshelf-server/internal/config"
	"github.com/readshelfapp/readshelf-server/internal/googlebooks"
	"github.com/readshelfapp/readshelf-server/internal/insights"
	"github.com/readshelfapp/readshelf-server/internal/logger"
	"github.com/readshelfapp/readshelf-server/internal/search"
)

// ProvideBooksClient provides the Google Books client.
func ProvideBooksClient(i do.Injector) (*googlebooks.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	opts := []googlebooks.Option{
		googlebooks.WithHTTPClient(&http.Client{Timeout: cfg.Search.Timeout}),
	}
	if cfg.Search.BaseURL != "" {
		opts = append(opts, googlebooks.WithBaseURL(cfg.Search.BaseURL))
	}

	return googlebooks.NewClient(cfg.Search.APIKey, log.Logger, opts...), nil
}

// SearchControllerHandle wraps the search controller with shutdown
// capability.
type SearchControllerHandle struct {
	*search.Controller
}

// Shutdown implements do.Shutdownable.
func (h *SearchControllerHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideSearchController provides the debounced catalog search controller.
func ProvideSearchController(i do.Injector) (*SearchControllerHandle, error) {
	client := do.MustInvoke[*googlebooks.Client](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	controller := search.NewController(client, storeHandle.Store, log.Logger)
	return &SearchControllerHandle{Controller: controller}, nil
}

// NoteIndexHandle wraps the note index with shutdown capability.
type NoteIndexHandle struct {
	*insights.NoteIndex
}

// Shutdown implements do.Shutdownable.
func (h *NoteIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideNoteIndex provides the Bleve note index.
func ProvideNoteIndex(i do.Injector) (*NoteIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := insights.NewNoteIndex(insights.Options{
		DataPath: cfg.Storage.DataPath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &NoteIndexHandle{NoteIndex: index}, nil
}

// ProvideInsightsService provides the note insights service.
func ProvideInsightsService(i do.Injector) (*insights.Service, error) {
	indexHandle := do.MustInvoke[*NoteIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return insights.NewService(storeHandle.Store, indexHandle.NoteIndex, log.Logger), nil
}
