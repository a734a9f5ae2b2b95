package memory

import (
	"testing"

	"fintrack/internal/storage"
	"fintrack/internal/storage/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.Store { return New() })
}
