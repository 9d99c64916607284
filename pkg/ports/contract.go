package ports

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/femto/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractProgram(id string) *domain.Program {
	return &domain.Program{
		ID:       id,
		Name:     "contract",
		Filename: "contract.pgm",
		Text:     "DVAR $ZCURR\n\nLINEAR X1.000000 Y0.000000 Z0.000000 F5.000000\n",
		Stats: domain.Stats{
			Instructions:  2,
			Moves:         1,
			PathLength:    1,
			EstimatedTime: 0.2,
		},
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

// RunProgramStoreContract runs a suite of tests to verify that a ProgramStore
// implementation adheres to the defined interface contract.
func RunProgramStoreContract(t *testing.T, store ProgramStore) {
	ctx := context.Background()
	id := "contract-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		program := contractProgram(id)
		require.NoError(t, store.Save(ctx, program))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, program.Name, loaded.Name)
		assert.Equal(t, program.Filename, loaded.Filename)
		assert.Equal(t, program.Text, loaded.Text)
		assert.Equal(t, program.Stats, loaded.Stats)
		assert.True(t, program.CreatedAt.Equal(loaded.CreatedAt))
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		program := contractProgram(id)
		program.Text = "; replaced\n"
		require.NoError(t, store.Save(ctx, program))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "; replaced\n", loaded.Text)
	})

	t.Run("Load Returns Copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		loaded.Text = "mutated"

		again, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.NotEqual(t, "mutated", again.Text)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+id)
		assert.ErrorIs(t, err, domain.ErrProgramNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, id))

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrProgramNotFound, "Load after Delete should return ErrProgramNotFound")

		assert.NoError(t, store.Delete(ctx, id), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1, id2 := id+"-b", id+"-a"
		require.NoError(t, store.Save(ctx, contractProgram(id1)))
		require.NoError(t, store.Save(ctx, contractProgram(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
		assert.IsNonDecreasing(t, ids)
	})
}

// RunLockerContract verifies that a Locker excludes concurrent holders of the
// same key and honors context cancellation.
func RunLockerContract(t *testing.T, locker Locker) {
	ctx := context.Background()
	key := "contract-lock-" + time.Now().Format("20060102150405")

	t.Run("Exclusive", func(t *testing.T) {
		var (
			mu      sync.Mutex
			holders int
			maxSeen int
			wg      sync.WaitGroup
		)
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock, err := locker.Lock(ctx, key, 5*time.Second)
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				holders++
				if holders > maxSeen {
					maxSeen = holders
				}
				mu.Unlock()

				time.Sleep(10 * time.Millisecond)

				mu.Lock()
				holders--
				mu.Unlock()
				assert.NoError(t, unlock(ctx))
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, maxSeen)
	})

	t.Run("Canceled While Waiting", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)
		defer func() { _ = unlock(ctx) }()

		waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(waitCtx, key, 5*time.Second)
		assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	})

	t.Run("Independent Keys", func(t *testing.T) {
		unlockA, err := locker.Lock(ctx, key+"-a", time.Second)
		require.NoError(t, err)
		defer func() { _ = unlockA(ctx) }()

		unlockB, err := locker.Lock(ctx, key+"-b", time.Second)
		require.NoError(t, err)
		assert.NoError(t, unlockB(ctx))
	})
}

// RunJobLoaderContract verifies that a JobLoader lists and returns the given jobs.
func RunJobLoaderContract(t *testing.T, loader JobLoader, ids []string) {
	ctx := context.Background()

	t.Run("ListJobs", func(t *testing.T) {
		listed, err := loader.ListJobs(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, ids, listed)
	})

	t.Run("GetJob", func(t *testing.T) {
		for _, id := range ids {
			j, err := loader.GetJob(ctx, id)
			require.NoError(t, err, id)
			assert.Equal(t, id, j.ID)
			assert.NotEmpty(t, j.Gcode.Filename, id)
		}
	})

	t.Run("GetJob Non-Existent", func(t *testing.T) {
		_, err := loader.GetJob(ctx, "does-not-exist")
		assert.ErrorIs(t, err, domain.ErrJobNotFound)
	})
}
