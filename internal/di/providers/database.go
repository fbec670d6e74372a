package providers

import (
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/readshelfapp/readshelf-server/internal/config"
	"github.com/readshelfapp/readshelf-server/internal/logger"
	"github.com/readshelfapp/readshelf-server/internal/store"
	"github.com/readshelfapp/readshelf-server/internal/store/sqlite"
)

// StoreHandle wraps the catalog store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the catalog store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
		return nil, err
	}

	db, err := store.New(filepath.Join(cfg.Storage.DataPath, "catalog"), log.Logger)
	if err != nil {
		return nil, err
	}
	return &StoreHandle{Store: db}, nil
}

// SessionStoreHandle wraps the reading-session store with shutdown
// capability.
type SessionStoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *SessionStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideSessionStore provides the reading-session store.
func ProvideSessionStore(i do.Injector) (*SessionStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := sqlite.Open(filepath.Join(cfg.Storage.DataPath, "sessions.db"), log.Logger)
	if err != nil {
		return nil, err
	}
	return &SessionStoreHandle{Store: db}, nil
}
