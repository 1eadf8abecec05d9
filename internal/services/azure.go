package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cybro8/TestOps-HealthCare-Project/internal/models"
)

const (
	ExportStatusDeployed = "deployed"
	ExportStatusFailed   = "failed"

	ExportOutcomeCompleted = "completed"
	ExportOutcomeEmpty     = "nothing_to_export"
)

type ExportResult struct {
	TestCaseID uint   `json:"test_case_id"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	Detail     string `json:"detail,omitempty"`
}

type ExportReport struct {
	Outcome  string         `json:"outcome"`
	Deployed int            `json:"deployed"`
	Failed   int            `json:"failed"`
	Results  []ExportResult `json:"results"`
}

// Azure DevOps work-item patch document entry.
type patchOperation struct {
	Op    string      `json:"op"`
	Path  string      `json:"path"`
	Value interface{} `json:"value"`
}

var (
	exportClient = &http.Client{
		Timeout: 30 * time.Second,
	}

	// Overridden in tests.
	azureBaseURL = "https://dev.azure.com"
)

// ExportTestCases pushes every stored record to Azure DevOps as a Test Case
// work item. Records are submitted one at a time; a failing record is
// reported as failed and never aborts the rest of the batch.
func ExportTestCases(project models.Project, testCases []models.TestCase) ExportReport {
	if len(testCases) == 0 {
		return ExportReport{Outcome: ExportOutcomeEmpty, Results: []ExportResult{}}
	}

	report := ExportReport{
		Outcome: ExportOutcomeCompleted,
		Results: make([]ExportResult, 0, len(testCases)),
	}

	for _, testCase := range testCases {
		result := exportOne(project, testCase)

		if result.Status == ExportStatusDeployed {
			report.Deployed++
		} else {
			report.Failed++
		}

		report.Results = append(report.Results, result)
	}

	return report
}

func exportOne(project models.Project, testCase models.TestCase) ExportResult {
	var payload map[string]interface{}

	if len(testCase.Payload) > 0 {
		if err := json.Unmarshal(testCase.Payload, &payload); err != nil {
			return ExportResult{
				TestCaseID: testCase.ID,
				Title:      fmt.Sprintf("Test Case %d", testCase.ID),
				Status:     ExportStatusFailed,
				Detail:     "malformed payload: " + err.Error(),
			}
		}
	}

	title := payloadString(payload, "title")

	if title == "" {
		title = fmt.Sprintf("Test Case %d", testCase.ID)
	}

	iterationPath := project.IterationPath

	if iterationPath == "" {
		iterationPath = project.Name + `\Sprint 1`
	}

	operations := []patchOperation{
		{Op: "add", Path: "/fields/System.Title", Value: title},
		{Op: "add", Path: "/fields/System.Description", Value: buildDescription(payload)},
		{Op: "add", Path: "/fields/System.AreaPath", Value: areaPathOrDefault(project)},
		{Op: "add", Path: "/fields/System.IterationPath", Value: iterationPath},
	}

	body, err := json.Marshal(operations)

	if err != nil {
		return ExportResult{TestCaseID: testCase.ID, Title: title, Status: ExportStatusFailed, Detail: err.Error()}
	}

	endpoint := fmt.Sprintf(
		"%s/%s/%s/_apis/wit/workitems/$Test%%20Case?api-version=%s",
		azureBaseURL,
		url.PathEscape(project.Organization),
		url.PathEscape(project.Name),
		apiVersionOrDefault(project),
	)

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))

	if err != nil {
		return ExportResult{TestCaseID: testCase.ID, Title: title, Status: ExportStatusFailed, Detail: err.Error()}
	}

	req.Header.Set("Content-Type", "application/json-patch+json")

	// Azure DevOps basic auth convention: empty username, PAT as password.
	req.SetBasicAuth("", project.AccessToken)

	resp, err := exportClient.Do(req)

	if err != nil {
		return ExportResult{TestCaseID: testCase.ID, Title: title, Status: ExportStatusFailed, Detail: err.Error()}
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return ExportResult{
			TestCaseID: testCase.ID,
			Title:      title,
			Status:     ExportStatusFailed,
			Detail:     fmt.Sprintf("%s: %s", resp.Status, strings.TrimSpace(string(detail))),
		}
	}

	return ExportResult{TestCaseID: testCase.ID, Title: title, Status: ExportStatusDeployed}
}

func buildDescription(payload map[string]interface{}) string {
	var parts []string

	if description := payloadString(payload, "description"); description != "" {
		parts = append(parts, description)
	}

	if steps := payloadString(payload, "steps"); steps != "" {
		parts = append(parts, "Steps: "+steps)
	}

	if expected := payloadString(payload, "expected_result"); expected != "" {
		parts = append(parts, "Expected Result: "+expected)
	}

	if priority := payloadString(payload, "priority"); priority != "" {
		parts = append(parts, "Priority: "+priority)
	}

	return strings.Join(parts, "\n\n")
}

func payloadString(payload map[string]interface{}, key string) string {
	if payload == nil {
		return ""
	}

	value, ok := payload[key]

	if !ok {
		return ""
	}

	text, ok := value.(string)

	if !ok {
		return fmt.Sprintf("%v", value)
	}

	return strings.TrimSpace(text)
}

func areaPathOrDefault(project models.Project) string {
	if project.AreaPath != "" {
		return project.AreaPath
	}
	return project.Name
}

func apiVersionOrDefault(project models.Project) string {
	if project.APIVersion != "" {
		return project.APIVersion
	}
	return "7.0"
}
