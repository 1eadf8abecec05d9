package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/cybro8/TestOps-HealthCare-Project/db"
	"github.com/cybro8/TestOps-HealthCare-Project/internal/apperrors"
	"github.com/cybro8/TestOps-HealthCare-Project/internal/models"
	"github.com/cybro8/TestOps-HealthCare-Project/internal/services"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

var generation *services.GenerationService

// InitGeneration wires the text-generation client. Without an API key the
// generate endpoint responds with 503.
func InitGeneration(apiKey string) {
	if apiKey == "" {
		log.Warn("OPENAI_API_KEY not set, test case generation disabled")
		return
	}

	generation = services.NewGenerationService(apiKey)
}

type GenerateRequest struct {
	Prompt string `json:"prompt" binding:"required"`
	FileID uint   `json:"file_id"`
}

type GenerateResponse struct {
	Reply     string            `json:"reply"`
	TestCases []models.TestCase `json:"test_cases,omitempty"`
}

// GenerateTestCases drives the chat workflow: edit commands are applied
// directly to the store, greetings are answered locally, anything else goes
// to the generation service and parsed blocks are saved as test cases.
func GenerateTestCases(ctx *gin.Context) {
	project, ok := loadProject(ctx)

	if !ok {
		return
	}

	if !requireProjectAccess(ctx, project.ID) {
		return
	}

	var body GenerateRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if command, isCommand := services.ParseCommand(body.Prompt); isCommand {
		applyCommand(ctx, project, command, body.Prompt)
		return
	}

	if reply, handled := services.LocalReply(body.Prompt); handled {
		appendChatHistory(project, body.Prompt, reply)
		ctx.JSON(http.StatusOK, GenerateResponse{Reply: reply})
		return
	}

	docContent, err := documentContent(project, body.FileID)

	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("File %d not found", body.FileID)})
		return
	}

	if generation == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "Test case generation is not configured"})
		return
	}

	testCases, err := testCaseStore().List(project.ID)

	if err != nil && !errors.Is(err, apperrors.ErrNoStore) {
		respondStoreError(ctx, err)
		return
	}

	reply, err := generation.Generate(ctx.Request.Context(), body.Prompt, docContent, testCases)

	if err != nil {
		log.Errorf("Generation failed for project %d: %v", project.ID, err)
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "Test case generation failed, please try again"})
		return
	}

	parsed := services.ParseTestCases(reply)

	inserted := make([]models.TestCase, 0, len(parsed))

	for _, block := range parsed {
		payload := map[string]interface{}{
			"title":           block.TestCaseID,
			"description":     block.Description,
			"steps":           block.Steps,
			"expected_result": block.ExpectedResult,
			"priority":        block.Priority,
		}

		testCase, err := testCaseStore().Insert(project.ID, payload)

		if err != nil {
			log.Errorf("Failed to save generated test case: %v", err)
			continue
		}

		inserted = append(inserted, *testCase)
	}

	appendChatHistory(project, body.Prompt, reply)

	if len(inserted) > 0 {
		BroadcastRefresh(fmt.Sprintf("%d", project.ID))
	}

	ctx.JSON(http.StatusOK, GenerateResponse{Reply: reply, TestCases: inserted})
}

func applyCommand(ctx *gin.Context, project *models.Project, command *services.Command, prompt string) {
	switch command.Action {
	case services.CommandDelete:
		if err := testCaseStore().Delete(project.ID, command.ID); err != nil {
			respondStoreError(ctx, err)
			return
		}

		reply := fmt.Sprintf("Deleted test case %d", command.ID)
		appendChatHistory(project, prompt, reply)
		BroadcastRefresh(fmt.Sprintf("%d", project.ID))
		ctx.JSON(http.StatusOK, GenerateResponse{Reply: reply})

	case services.CommandModify:
		payload := map[string]interface{}{command.Field: command.Value}

		testCase, err := testCaseStore().Update(project.ID, command.ID, payload)

		if err != nil {
			respondStoreError(ctx, err)
			return
		}

		reply := fmt.Sprintf("Updated %s of test case %d", command.Field, command.ID)
		appendChatHistory(project, prompt, reply)
		BroadcastRefresh(fmt.Sprintf("%d", project.ID))
		ctx.JSON(http.StatusOK, GenerateResponse{Reply: reply, TestCases: []models.TestCase{*testCase}})
	}
}

// documentContent extracts text from the requested file, falling back to the
// project's most recent upload. An explicit file id that matches nothing is
// reported as not found; otherwise extraction failures degrade to no context.
func documentContent(project *models.Project, fileID uint) (string, error) {
	var file models.ProjectFile

	query := db.DB.Where("project_id = ?", project.ID)

	if fileID != 0 {
		query = query.Where("id = ?", fileID)
	}

	if err := query.Order("uploaded_at DESC").First(&file).Error; err != nil {
		if fileID != 0 {
			return "", apperrors.ErrNotFound
		}
		return "", nil
	}

	content, err := services.ExtractText(file.Path)

	if err != nil {
		log.Warnf("Failed to extract text from %s: %v", file.Path, err)
		return "", nil
	}

	return content, nil
}

// appendChatHistory persists the exchange on the project. The stored history
// is the source of truth for the chat UI.
func appendChatHistory(project *models.Project, prompt string, reply string) {
	var history []models.ChatMessage

	if len(project.ChatHistory) > 0 {
		if err := json.Unmarshal(project.ChatHistory, &history); err != nil {
			log.Warnf("Discarding unreadable chat history for project %d: %v", project.ID, err)
			history = nil
		}
	}

	history = append(history,
		models.ChatMessage{Role: "user", Content: prompt},
		models.ChatMessage{Role: "assistant", Content: reply},
	)

	raw, err := json.Marshal(history)

	if err != nil {
		log.Errorf("Failed to marshal chat history: %v", err)
		return
	}

	if err := db.DB.Model(project).Update("chat_history", datatypes.JSON(raw)).Error; err != nil {
		log.Errorf("Failed to persist chat history: %v", err)
	}
}

// GetChatHistory returns the persisted conversation for the project.
func GetChatHistory(ctx *gin.Context) {
	project, ok := loadProject(ctx)

	if !ok {
		return
	}

	if !requireProjectAccess(ctx, project.ID) {
		return
	}

	history := []models.ChatMessage{}

	if len(project.ChatHistory) > 0 {
		if err := json.Unmarshal(project.ChatHistory, &history); err != nil {
			log.Warnf("Unreadable chat history for project %d: %v", project.ID, err)
		}
	}

	ctx.JSON(http.StatusOK, history)
}
