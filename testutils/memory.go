package testutils

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/mo"

	"mmjira/db"
	"mmjira/models"
)

var (
	_ db.MappingsRepository       = (*MemoryMappingsRepository)(nil)
	_ db.InvocationLogsRepository = (*MemoryInvocationLogsRepository)(nil)
)

// MemoryMappingsRepository keeps mappings in a map keyed by channel id. It
// mirrors the Postgres repository for tests that do not need a database.
type MemoryMappingsRepository struct {
	mu       sync.Mutex
	mappings map[string]*models.ChannelProjectMapping
	now      func() time.Time
}

func NewMemoryMappingsRepository() *MemoryMappingsRepository {
	return &MemoryMappingsRepository{
		mappings: map[string]*models.ChannelProjectMapping{},
		now:      time.Now,
	}
}

func (r *MemoryMappingsRepository) UpsertMapping(_ context.Context, mapping *models.ChannelProjectMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if existing, ok := r.mappings[mapping.ChannelID]; ok {
		existing.ChannelName = mapping.ChannelName
		existing.ProjectKey = mapping.ProjectKey
		existing.UpdatedAt = now
		*mapping = *existing
		return nil
	}

	stored := *mapping
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.mappings[mapping.ChannelID] = &stored
	*mapping = stored
	return nil
}

func (r *MemoryMappingsRepository) CreateMapping(_ context.Context, mapping *models.ChannelProjectMapping) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.mappings[mapping.ChannelID]; ok {
		return false, nil
	}
	now := r.now()
	mapping.CreatedAt = now
	mapping.UpdatedAt = now
	stored := *mapping
	r.mappings[mapping.ChannelID] = &stored
	return true, nil
}

func (r *MemoryMappingsRepository) GetMappingByChannelID(
	_ context.Context,
	channelID string,
) (mo.Option[*models.ChannelProjectMapping], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if mapping, ok := r.mappings[channelID]; ok {
		copied := *mapping
		return mo.Some(&copied), nil
	}
	return mo.None[*models.ChannelProjectMapping](), nil
}

func (r *MemoryMappingsRepository) GetMappingByID(
	_ context.Context,
	id string,
) (mo.Option[*models.ChannelProjectMapping], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, mapping := range r.mappings {
		if mapping.ID == id {
			copied := *mapping
			return mo.Some(&copied), nil
		}
	}
	return mo.None[*models.ChannelProjectMapping](), nil
}

func (r *MemoryMappingsRepository) ListMappings(_ context.Context) ([]*models.ChannelProjectMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*models.ChannelProjectMapping, 0, len(r.mappings))
	for _, mapping := range r.mappings {
		copied := *mapping
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ChannelName < result[j].ChannelName
	})
	return result, nil
}

func (r *MemoryMappingsRepository) DeleteMappingByChannelID(_ context.Context, channelID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.mappings[channelID]; !ok {
		return false, nil
	}
	delete(r.mappings, channelID)
	return true, nil
}

func (r *MemoryMappingsRepository) DeleteMappingByID(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for channelID, mapping := range r.mappings {
		if mapping.ID == id {
			delete(r.mappings, channelID)
			return true, nil
		}
	}
	return false, nil
}

// issueCreatingCommand matches the command_text filter used for channel activity in Postgres
var issueCreatingCommand = regexp.MustCompile(`(?i)^(create|bug|task|story)( |$)`)

// MemoryInvocationLogsRepository is an append-only slice of log entries.
type MemoryInvocationLogsRepository struct {
	mu      sync.Mutex
	entries []*models.InvocationLogEntry
	now     func() time.Time
}

func NewMemoryInvocationLogsRepository() *MemoryInvocationLogsRepository {
	return &MemoryInvocationLogsRepository{now: time.Now}
}

// Entries returns a snapshot of everything appended so far, oldest first.
func (r *MemoryInvocationLogsRepository) Entries() []models.InvocationLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]models.InvocationLogEntry, 0, len(r.entries))
	for _, entry := range r.entries {
		result = append(result, *entry)
	}
	return result
}

func (r *MemoryInvocationLogsRepository) AppendLog(_ context.Context, entry *models.InvocationLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.now()
	}
	stored := *entry
	r.entries = append(r.entries, &stored)
	return nil
}

func (r *MemoryInvocationLogsRepository) GetLogByID(
	_ context.Context,
	id string,
) (mo.Option[*models.InvocationLogEntry], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range r.entries {
		if entry.ID == id {
			copied := *entry
			return mo.Some(&copied), nil
		}
	}
	return mo.None[*models.InvocationLogEntry](), nil
}

func (r *MemoryInvocationLogsRepository) QueryLogs(
	_ context.Context,
	filters models.LogFilters,
	page, pageSize int,
) (*models.LogPage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	var matched []*models.InvocationLogEntry
	for i := len(r.entries) - 1; i >= 0; i-- {
		entry := r.entries[i]
		if filters.ChannelID != "" && entry.ChannelID != filters.ChannelID {
			continue
		}
		if filters.UserName != "" &&
			!strings.Contains(strings.ToLower(entry.UserName), strings.ToLower(filters.UserName)) {
			continue
		}
		if filters.Status != "" && entry.Status != filters.Status {
			continue
		}
		copied := *entry
		matched = append(matched, &copied)
	}

	total := len(matched)
	start := min((page-1)*pageSize, total)
	end := min(start+pageSize, total)
	return &models.LogPage{
		Logs:        matched[start:end],
		Total:       total,
		Pages:       (total + pageSize - 1) / pageSize,
		CurrentPage: page,
	}, nil
}

func (r *MemoryInvocationLogsRepository) DeleteAllLogs(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := int64(len(r.entries))
	r.entries = nil
	return deleted, nil
}

func (r *MemoryInvocationLogsRepository) DeleteLogsOlderThan(_ context.Context, days int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().AddDate(0, 0, -days)
	kept := r.entries[:0]
	var deleted int64
	for _, entry := range r.entries {
		if entry.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, entry)
	}
	r.entries = kept
	return deleted, nil
}

func (r *MemoryInvocationLogsRepository) GetStatistics(_ context.Context) (*models.LogStatistics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byStatus := map[string]int{}
	byChannel := map[string]int{}
	byUser := map[string]int{}
	recentCutoff := r.now().AddDate(0, 0, -7)
	stats := &models.LogStatistics{Total: len(r.entries)}
	for _, entry := range r.entries {
		byStatus[string(entry.Status)]++
		byChannel[entry.ChannelName]++
		byUser[entry.UserName]++
		if !entry.Timestamp.Before(recentCutoff) {
			stats.Recent++
		}
	}
	stats.ByStatus = countsOf(byStatus, 0)
	stats.ByChannel = countsOf(byChannel, 10)
	stats.ByUser = countsOf(byUser, 10)
	return stats, nil
}

func countsOf(counts map[string]int, limit int) []models.CountByKey {
	result := make([]models.CountByKey, 0, len(counts))
	for key, count := range counts {
		result = append(result, models.CountByKey{Key: key, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Key < result[j].Key
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

func (r *MemoryInvocationLogsRepository) GetChannelActivity(
	_ context.Context,
	channelID string,
) (*models.ChannelActivity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	activity := &models.ChannelActivity{}
	recentCutoff := r.now().AddDate(0, 0, -7)
	for _, entry := range r.entries {
		if entry.ChannelID != channelID {
			continue
		}
		if entry.Status == models.InvocationStatusSuccess && issueCreatingCommand.MatchString(entry.CommandText) {
			activity.IssuesCreated++
		}
		if !entry.Timestamp.Before(recentCutoff) {
			activity.RecentCommands++
		}
		if activity.LastActivity == nil || entry.Timestamp.After(*activity.LastActivity) {
			ts := entry.Timestamp
			activity.LastActivity = &ts
		}
	}
	return activity, nil
}
