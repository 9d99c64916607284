package ports

import (
	"context"

	"github.com/aretw0/femto/pkg/domain"
)

// ProgramStore defines the interface for persisting compiled programs.
type ProgramStore interface {
	// Save persists the program under its ID, replacing any previous version.
	Save(ctx context.Context, program *domain.Program) error

	// Load retrieves a program by ID.
	// Returns domain.ErrProgramNotFound if the program does not exist.
	Load(ctx context.Context, id string) (*domain.Program, error)

	// Delete removes a program. Deleting a missing program is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of all stored programs in lexical order.
	List(ctx context.Context) ([]string, error)
}
