package providers

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/samber/do/v2"

	"github.com/readshelfapp/readshelf-server/internal/catalog"
	"github.com/readshelfapp/readshelf-server/internal/domain"
	"github.com/readshelfapp/readshelf-server/internal/feed"
	"github.com/readshelfapp/readshelf-server/internal/logger"
	"github.com/readshelfapp/readshelf-server/internal/optimistic"
)

// ProvideCoordinator provides the shared optimistic mutation coordinator.
func ProvideCoordinator(i do.Injector) (*optimistic.Coordinator, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return optimistic.NewCoordinator(log.Logger), nil
}

// ProvideConfirmer provides the destructive-action gate: a y/N prompt on
// the terminal.
func ProvideConfirmer(i do.Injector) (optimistic.Confirmer, error) {
	reader := bufio.NewReader(os.Stdin)
	return optimistic.ConfirmFunc(func(_ context.Context, prompt string) bool {
		fmt.Printf("%s [y/N] ", prompt)
		line, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}), nil
}

// ProvideCatalogService provides the book-adding service.
func ProvideCatalogService(i do.Injector) (*catalog.Service, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return catalog.NewService(storeHandle.Store, log.Logger), nil
}

// ProvideBookView provides an unloaded book detail view. Callers Load it
// with the book they navigate to.
func ProvideBookView(i do.Injector) (*catalog.View, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sessionHandle := do.MustInvoke[*SessionStoreHandle](i)
	coord := do.MustInvoke[*optimistic.Coordinator](i)
	confirm := do.MustInvoke[optimistic.Confirmer](i)
	log := do.MustInvoke[*logger.Logger](i)

	return catalog.NewView(storeHandle.Store, sessionHandle.Store, coord, confirm, log.Logger), nil
}

// ProvideFeedView provides the community feed view.
func ProvideFeedView(i do.Injector) (*feed.View, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	coord := do.MustInvoke[*optimistic.Coordinator](i)
	confirm := do.MustInvoke[optimistic.Confirmer](i)
	actor := do.MustInvoke[*domain.Actor](i)
	log := do.MustInvoke[*logger.Logger](i)

	return feed.NewView(storeHandle.Store, coord, confirm, actor, log.Logger), nil
}
