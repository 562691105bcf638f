package sqlite

import (
	"testing"

	"github.com/rigbook/rigbook-server/internal/store"
	"github.com/rigbook/rigbook-server/internal/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return newTestStore(t)
	})
}
