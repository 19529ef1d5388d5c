package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/slack-go/slack"

	"mmjira/models"
	"mmjira/services"
)

type SlashCommandsHandler struct {
	commandsService services.CommandsService
}

func NewSlashCommandsHandler(commandsService services.CommandsService) *SlashCommandsHandler {
	return &SlashCommandsHandler{commandsService: commandsService}
}

// HandleSlashCommand answers every request with 200 so Mattermost shows the
// reply instead of a generic failure.
func (h *SlashCommandsHandler) HandleSlashCommand(w http.ResponseWriter, r *http.Request) {
	log.Printf("⚡ Slash command received from %s", r.RemoteAddr)

	command, err := slack.SlashCommandParse(r)
	if err != nil {
		log.Printf("❌ Failed to parse slash command: %v", err)
		writeSlashResponse(w, models.PrivateResponse("❌ Could not read the slash command payload."))
		return
	}

	request := models.SlashCommandRequest{
		Token:       command.Token,
		ChannelID:   command.ChannelID,
		ChannelName: command.ChannelName,
		UserName:    command.UserName,
		Command:     command.Command,
		Text:        command.Text,
	}
	// inbound cancellation is not propagated to tracker calls
	response := h.commandsService.ProcessCommand(context.WithoutCancel(r.Context()), request)
	writeSlashResponse(w, response)
}

func writeSlashResponse(w http.ResponseWriter, response *models.CommandResponse) {
	msg := slack.Msg{
		ResponseType: slack.ResponseTypeEphemeral,
		Text:         response.Text,
	}
	if response.Visibility == models.VisibilityChannel {
		msg.ResponseType = slack.ResponseTypeInChannel
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		log.Printf("❌ Failed to encode slash command response: %v", err)
	}
}

func (h *SlashCommandsHandler) SetupEndpoints(router *mux.Router) {
	log.Printf("🚀 Registering slash command endpoint on /mattermost/jira")
	router.HandleFunc("/mattermost/jira", h.HandleSlashCommand).Methods("POST")
	log.Printf("✅ POST /mattermost/jira endpoint registered")
}
