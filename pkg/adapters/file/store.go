package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/femto/internal/fsutil"
	"github.com/aretw0/femto/pkg/domain"
)

// Store implements ports.ProgramStore using the local filesystem.
// Every program is kept as <id>.pgm, ready to be copied to the controller,
// next to an <id>.json sidecar holding its metadata.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".femto/programs".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".femto", "programs")
	}
	return &Store{BasePath: basePath}
}

// sidecar is the metadata written next to the program text.
type sidecar struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Filename  string       `json:"filename"`
	Stats     domain.Stats `json:"stats"`
	CreatedAt time.Time    `json:"created_at"`
}

func newSidecar(p *domain.Program) sidecar {
	return sidecar{ID: p.ID, Name: p.Name, Filename: p.Filename, Stats: p.Stats, CreatedAt: p.CreatedAt}
}

func validID(id string) error {
	if id == "" {
		return errors.New("program id cannot be empty")
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("invalid program id %q", id)
	}
	return nil
}

func (s *Store) path(id, ext string) string {
	return filepath.Join(s.BasePath, id+ext)
}

// Save writes the program text and its sidecar atomically.
// The text is written first so a listed program always has its text.
func (s *Store) Save(ctx context.Context, program *domain.Program) error {
	if err := validID(program.ID); err != nil {
		return err
	}
	meta, err := json.MarshalIndent(newSidecar(program), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal program metadata: %w", err)
	}
	if err := fsutil.WriteAtomic(s.path(program.ID, ".pgm"), []byte(program.Text)); err != nil {
		return fmt.Errorf("failed to write program %s: %w", program.ID, err)
	}
	if err := fsutil.WriteAtomic(s.path(program.ID, ".json"), meta); err != nil {
		return fmt.Errorf("failed to write program metadata %s: %w", program.ID, err)
	}
	return nil
}

// Load reads the sidecar and the program text.
func (s *Store) Load(ctx context.Context, id string) (*domain.Program, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	meta, err := os.ReadFile(s.path(id, ".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrProgramNotFound
		}
		return nil, fmt.Errorf("failed to read program metadata: %w", err)
	}
	var sc sidecar
	if err := json.Unmarshal(meta, &sc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal program metadata: %w", err)
	}

	text, err := os.ReadFile(s.path(id, ".pgm"))
	if err != nil {
		return nil, fmt.Errorf("failed to read program text: %w", err)
	}
	return &domain.Program{
		ID:        sc.ID,
		Name:      sc.Name,
		Filename:  sc.Filename,
		Text:      string(text),
		Stats:     sc.Stats,
		CreatedAt: sc.CreatedAt,
	}, nil
}

// Delete removes the sidecar, then the program text.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := validID(id); err != nil {
		return err
	}
	for _, ext := range []string{".json", ".pgm"} {
		if err := os.Remove(s.path(id, ext)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete program file: %w", err)
		}
	}
	return nil
}

// List returns the IDs of all programs with a sidecar.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}
