package api

import (
	"encoding/json"

	"mmjira/models"
)

// DomainMappingToAPIMapping converts a domain mapping to an API MappingModel
func DomainMappingToAPIMapping(mapping *models.ChannelProjectMapping) *MappingModel {
	if mapping == nil {
		return nil
	}

	return &MappingModel{
		ID:          mapping.ID,
		ChannelID:   mapping.ChannelID,
		ChannelName: mapping.ChannelName,
		ProjectKey:  mapping.ProjectKey,
		CreatedAt:   mapping.CreatedAt,
		UpdatedAt:   mapping.UpdatedAt,
	}
}

func DomainMappingsToAPIMappings(mappings []*models.ChannelProjectMapping) []*MappingModel {
	result := make([]*MappingModel, 0, len(mappings))
	for _, mapping := range mappings {
		result = append(result, DomainMappingToAPIMapping(mapping))
	}
	return result
}

func DomainLogToAPILogSummary(entry *models.InvocationLogEntry) *LogSummaryModel {
	if entry == nil {
		return nil
	}

	return &LogSummaryModel{
		ID:            entry.ID,
		Timestamp:     entry.Timestamp,
		ChannelID:     entry.ChannelID,
		ChannelName:   entry.ChannelName,
		UserName:      entry.UserName,
		CommandText:   entry.CommandText,
		ResponseCode:  entry.ResponseCode,
		ExecutionTime: entry.ExecutionTime,
		Status:        string(entry.Status),
		ErrorMessage:  entry.ErrorMessage,
	}
}

func DomainLogToAPILogDetail(entry *models.InvocationLogEntry) *LogDetailModel {
	if entry == nil {
		return nil
	}

	return &LogDetailModel{
		LogSummaryModel: *DomainLogToAPILogSummary(entry),
		RequestPayload:  rawPayload(entry.RequestPayload),
		ResponsePayload: rawPayload(entry.ResponsePayload),
	}
}

func DomainLogPageToAPILogPage(page *models.LogPage) *LogPageModel {
	logs := make([]*LogSummaryModel, 0, len(page.Logs))
	for _, entry := range page.Logs {
		logs = append(logs, DomainLogToAPILogSummary(entry))
	}
	return &LogPageModel{
		Logs:        logs,
		Total:       page.Total,
		Pages:       page.Pages,
		CurrentPage: page.CurrentPage,
	}
}

func rawPayload(payload string) json.RawMessage {
	if payload == "" {
		return json.RawMessage("null")
	}
	if json.Valid([]byte(payload)) {
		return json.RawMessage(payload)
	}
	encoded, _ := json.Marshal(payload)
	return encoded
}
