package mappings_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mmjira/core"
	"mmjira/db"
	"mmjira/services/mappings"
	"mmjira/services/txmanager"
	"mmjira/testutils"
)

func newService() (*mappings.MappingsService, *testutils.MemoryMappingsRepository) {
	repo := testutils.NewMemoryMappingsRepository()
	return mappings.NewMappingsService(repo, &txmanager.PassthroughTransactionManager{}), repo
}

func TestMappingsService_BindChannel(t *testing.T) {
	ctx := context.Background()

	t.Run("lowercase key is uppercased", func(t *testing.T) {
		service, _ := newService()

		mapping, previous, err := service.BindChannel(ctx, "ch1", "town-square", "proj")
		require.NoError(t, err)
		assert.Equal(t, "PROJ", mapping.ProjectKey)
		assert.True(t, previous.IsAbsent())
		assert.True(t, core.IsValidID(mapping.ID, "map"))
	})

	t.Run("rebind replaces the project and reports the previous one", func(t *testing.T) {
		service, repo := newService()

		_, _, err := service.BindChannel(ctx, "ch1", "town-square", "OLD")
		require.NoError(t, err)
		mapping, previous, err := service.BindChannel(ctx, "ch1", "town-square", "NEW")
		require.NoError(t, err)

		require.True(t, previous.IsPresent())
		assert.Equal(t, "OLD", previous.MustGet().ProjectKey)
		assert.Equal(t, "NEW", mapping.ProjectKey)

		all, err := repo.ListMappings(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("invalid key is rejected before any write", func(t *testing.T) {
		service, repo := newService()

		_, _, err := service.BindChannel(ctx, "ch1", "town-square", "proj123456789")
		var validationErr *core.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, validationErr.Message, "too long")

		all, err := repo.ListMappings(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("concurrent binds keep one row per channel", func(t *testing.T) {
		service, repo := newService()

		var wg sync.WaitGroup
		for _, key := range []string{"AAA", "BBB", "CCC", "DDD"} {
			wg.Add(1)
			go func(key string) {
				defer wg.Done()
				_, _, err := service.BindChannel(ctx, "ch1", "town-square", key)
				assert.NoError(t, err)
			}(key)
		}
		wg.Wait()

		all, err := repo.ListMappings(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("transaction failure is returned", func(t *testing.T) {
		txManager := &txmanager.MockTransactionManager{}
		txManager.On("WithTransaction", mock.Anything, mock.Anything).Return(errors.New("db down"))
		service := mappings.NewMappingsService(testutils.NewMemoryMappingsRepository(), txManager)

		_, previous, err := service.BindChannel(ctx, "ch1", "town-square", "PROJ")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db down")
		assert.True(t, previous.IsAbsent())
		txManager.AssertExpectations(t)
	})
}

func TestMappingsService_UnbindChannel(t *testing.T) {
	ctx := context.Background()

	t.Run("unbinding twice returns none both times after the first", func(t *testing.T) {
		service, _ := newService()
		_, _, err := service.BindChannel(ctx, "ch1", "town-square", "PROJ")
		require.NoError(t, err)

		removed, err := service.UnbindChannel(ctx, "ch1")
		require.NoError(t, err)
		require.True(t, removed.IsPresent())
		assert.Equal(t, "PROJ", removed.MustGet().ProjectKey)

		for range 2 {
			removed, err = service.UnbindChannel(ctx, "ch1")
			require.NoError(t, err)
			assert.True(t, removed.IsAbsent())
		}
	})
}

func TestMappingsService_AdminOperations(t *testing.T) {
	ctx := context.Background()

	t.Run("create refuses an already mapped channel", func(t *testing.T) {
		service, _ := newService()

		created, err := service.CreateMapping(ctx, "ch1", "town-square", "proj")
		require.NoError(t, err)
		assert.Equal(t, "PROJ", created.ProjectKey)

		_, err = service.CreateMapping(ctx, "ch1", "town-square", "OTHER")
		assert.ErrorIs(t, err, core.ErrAlreadyExists)
	})

	t.Run("create requires a channel id", func(t *testing.T) {
		service, _ := newService()

		_, err := service.CreateMapping(ctx, "  ", "town-square", "PROJ")
		var validationErr *core.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("get and delete by id", func(t *testing.T) {
		service, _ := newService()
		created, err := service.CreateMapping(ctx, "ch1", "town-square", "PROJ")
		require.NoError(t, err)

		found, err := service.GetMappingByID(ctx, created.ID)
		require.NoError(t, err)
		require.True(t, found.IsPresent())
		assert.Equal(t, "ch1", found.MustGet().ChannelID)

		require.NoError(t, service.DeleteMappingByID(ctx, created.ID))
		err = service.DeleteMappingByID(ctx, created.ID)
		assert.True(t, core.IsNotFoundError(err))
	})

	t.Run("malformed id is simply absent", func(t *testing.T) {
		service, _ := newService()

		found, err := service.GetMappingByID(ctx, "not-an-id")
		require.NoError(t, err)
		assert.True(t, found.IsAbsent())
	})
}

func TestMappingsService_Postgres(t *testing.T) {
	dbConn := testutils.SetupTestDB(t)
	repo := db.NewPostgresMappingsRepository(dbConn, testutils.TestSchema)
	service := mappings.NewMappingsService(repo, txmanager.NewTransactionManager(dbConn))
	ctx := context.Background()
	channelID := testutils.UniqueChannelID()
	defer repo.DeleteMappingByChannelID(ctx, channelID)

	first, _, err := service.BindChannel(ctx, channelID, "town-square", "OLD")
	require.NoError(t, err)
	second, previous, err := service.BindChannel(ctx, channelID, "town-square", "NEW")
	require.NoError(t, err)

	require.True(t, previous.IsPresent())
	assert.Equal(t, "OLD", previous.MustGet().ProjectKey)
	assert.Equal(t, first.ID, second.ID, "rebinding keeps the original row")

	stored, err := service.GetMapping(ctx, channelID)
	require.NoError(t, err)
	assert.Equal(t, "NEW", stored.MustGet().ProjectKey)
}
