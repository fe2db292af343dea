package memory

import (
	"testing"

	"github.com/lunch-picker/lunch-picker/internal/infrastructure/storetest"
)

func TestRepositoryContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Stores {
		db := NewDB()
		return storetest.Stores{
			Sessions: NewSessionRepository(db),
			Choices:  NewChoiceRepository(db),
			Users:    NewUserRepository(db),
		}
	})
}
