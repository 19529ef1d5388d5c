package mappings

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/samber/mo"

	"mmjira/core"
	"mmjira/db"
	"mmjira/models"
	"mmjira/services"
	"mmjira/utils"
)

var _ services.MappingsService = (*MappingsService)(nil)

type MappingsService struct {
	mappingsRepo db.MappingsRepository
	txManager    services.TransactionManager
}

func NewMappingsService(repo db.MappingsRepository, txManager services.TransactionManager) *MappingsService {
	return &MappingsService{
		mappingsRepo: repo,
		txManager:    txManager,
	}
}

func (s *MappingsService) GetMapping(
	ctx context.Context,
	channelID string,
) (mo.Option[*models.ChannelProjectMapping], error) {
	if channelID == "" {
		return mo.None[*models.ChannelProjectMapping](), fmt.Errorf("channel ID cannot be empty")
	}

	maybeMapping, err := s.mappingsRepo.GetMappingByChannelID(ctx, channelID)
	if err != nil {
		return mo.None[*models.ChannelProjectMapping](), fmt.Errorf("failed to get mapping for channel %s: %w", channelID, err)
	}
	return maybeMapping, nil
}

// BindChannel upserts by channel id, so concurrent binds of one channel never
// produce two rows. The previous binding is read in the same transaction.
func (s *MappingsService) BindChannel(
	ctx context.Context,
	channelID, channelName, projectKey string,
) (*models.ChannelProjectMapping, mo.Option[*models.ChannelProjectMapping], error) {
	log.Printf("📋 Starting to bind channel %s (%s) to project %s", channelID, channelName, projectKey)
	previous := mo.None[*models.ChannelProjectMapping]()

	if channelID == "" {
		return nil, previous, fmt.Errorf("channel ID cannot be empty")
	}
	normalizedKey, err := utils.NormalizeProjectKey(projectKey)
	if err != nil {
		return nil, previous, err
	}

	mapping := &models.ChannelProjectMapping{
		ID:          core.NewID("map"),
		ChannelID:   channelID,
		ChannelName: channelName,
		ProjectKey:  normalizedKey,
	}

	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.mappingsRepo.GetMappingByChannelID(ctx, channelID)
		if err != nil {
			return fmt.Errorf("failed to check existing mapping: %w", err)
		}
		previous = existing
		return s.mappingsRepo.UpsertMapping(ctx, mapping)
	})
	if err != nil {
		log.Printf("❌ Failed to bind channel %s: %v", channelID, err)
		return nil, mo.None[*models.ChannelProjectMapping](), fmt.Errorf("failed to bind channel: %w", err)
	}

	log.Printf("📋 Completed successfully - bound channel %s to project %s", channelID, mapping.ProjectKey)
	return mapping, previous, nil
}

func (s *MappingsService) UnbindChannel(
	ctx context.Context,
	channelID string,
) (mo.Option[*models.ChannelProjectMapping], error) {
	log.Printf("📋 Starting to unbind channel %s", channelID)
	removed := mo.None[*models.ChannelProjectMapping]()

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.mappingsRepo.GetMappingByChannelID(ctx, channelID)
		if err != nil {
			return fmt.Errorf("failed to check existing mapping: %w", err)
		}
		if !existing.IsPresent() {
			return nil
		}
		if _, err := s.mappingsRepo.DeleteMappingByChannelID(ctx, channelID); err != nil {
			return fmt.Errorf("failed to delete mapping: %w", err)
		}
		removed = existing
		return nil
	})
	if err != nil {
		log.Printf("❌ Failed to unbind channel %s: %v", channelID, err)
		return mo.None[*models.ChannelProjectMapping](), fmt.Errorf("failed to unbind channel: %w", err)
	}

	if removed.IsPresent() {
		log.Printf("📋 Completed successfully - unbound channel %s from %s", channelID, removed.MustGet().ProjectKey)
	} else {
		log.Printf("📋 Channel %s was not bound", channelID)
	}
	return removed, nil
}

func (s *MappingsService) ListMappings(ctx context.Context) ([]*models.ChannelProjectMapping, error) {
	mappings, err := s.mappingsRepo.ListMappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list mappings: %w", err)
	}
	return mappings, nil
}

// CreateMapping is the admin path. Unlike BindChannel it refuses to overwrite.
func (s *MappingsService) CreateMapping(
	ctx context.Context,
	channelID, channelName, projectKey string,
) (*models.ChannelProjectMapping, error) {
	log.Printf("📋 Starting to create mapping for channel %s", channelID)

	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return nil, core.NewValidationError("Channel ID is required")
	}
	normalizedKey, err := utils.NormalizeProjectKey(projectKey)
	if err != nil {
		return nil, err
	}

	mapping := &models.ChannelProjectMapping{
		ID:          core.NewID("map"),
		ChannelID:   channelID,
		ChannelName: strings.TrimSpace(channelName),
		ProjectKey:  normalizedKey,
	}
	created, err := s.mappingsRepo.CreateMapping(ctx, mapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create mapping: %w", err)
	}
	if !created {
		return nil, fmt.Errorf("channel %s is already mapped: %w", channelID, core.ErrAlreadyExists)
	}

	log.Printf("📋 Completed successfully - created mapping %s", mapping.ID)
	return mapping, nil
}

func (s *MappingsService) GetMappingByID(
	ctx context.Context,
	id string,
) (mo.Option[*models.ChannelProjectMapping], error) {
	if !core.IsValidID(id, "map") {
		return mo.None[*models.ChannelProjectMapping](), nil
	}
	maybeMapping, err := s.mappingsRepo.GetMappingByID(ctx, id)
	if err != nil {
		return mo.None[*models.ChannelProjectMapping](), fmt.Errorf("failed to get mapping %s: %w", id, err)
	}
	return maybeMapping, nil
}

func (s *MappingsService) DeleteMappingByID(ctx context.Context, id string) error {
	log.Printf("📋 Starting to delete mapping %s", id)
	deleted, err := s.mappingsRepo.DeleteMappingByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete mapping %s: %w", id, err)
	}
	if !deleted {
		return fmt.Errorf("mapping %s: %w", id, core.ErrNotFound)
	}
	log.Printf("📋 Completed successfully - deleted mapping %s", id)
	return nil
}
