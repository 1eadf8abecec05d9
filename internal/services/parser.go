package services

import (
	"regexp"
	"strconv"
	"strings"
)

// ParsedTestCase is one block of the model's structured response.
type ParsedTestCase struct {
	TestCaseID     string `json:"test_case_id"`
	Description    string `json:"description"`
	Steps          string `json:"steps"`
	ExpectedResult string `json:"expected_result"`
	Priority       string `json:"priority"`
}

const (
	CommandDelete = "delete"
	CommandModify = "modify"
)

// Command is a parsed edit instruction (DELETE:<id> or
// MODIFY:<id>|<field>|<new_value>).
type Command struct {
	Action string
	ID     uint
	Field  string
	Value  string
}

var testCaseBlockPattern = regexp.MustCompile(
	`(?is)Test Case ID:(.*?)\nDescription:(.*?)\nSteps:(.*?)\nExpected Result:(.*?)\nPriority:(.*?)(?:\n|$)`,
)

// ParseTestCases extracts structured blocks from generated text. Malformed
// or unrelated text yields nil rather than an error.
func ParseTestCases(text string) []ParsedTestCase {
	matches := testCaseBlockPattern.FindAllStringSubmatch(text+"\n", -1)

	if len(matches) == 0 {
		return nil
	}

	testCases := make([]ParsedTestCase, 0, len(matches))

	for _, match := range matches {
		testCases = append(testCases, ParsedTestCase{
			TestCaseID:     strings.TrimSpace(match[1]),
			Description:    strings.TrimSpace(match[2]),
			Steps:          strings.TrimSpace(match[3]),
			ExpectedResult: strings.TrimSpace(match[4]),
			Priority:       strings.TrimSpace(match[5]),
		})
	}

	return testCases
}

// ParseCommand recognizes edit commands in a chat prompt. The second return
// value is false for anything that is not a command.
func ParseCommand(text string) (*Command, bool) {
	trimmed := strings.TrimSpace(text)
	upper := strings.ToUpper(trimmed)

	switch {
	case strings.HasPrefix(upper, "DELETE:"):
		id, err := strconv.ParseUint(strings.TrimSpace(trimmed[len("DELETE:"):]), 10, 32)

		if err != nil {
			return nil, false
		}

		return &Command{Action: CommandDelete, ID: uint(id)}, true

	case strings.HasPrefix(upper, "MODIFY:"):
		parts := strings.SplitN(trimmed[len("MODIFY:"):], "|", 3)

		if len(parts) != 3 {
			return nil, false
		}

		id, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 32)

		if err != nil {
			return nil, false
		}

		field := strings.TrimSpace(parts[1])

		if field == "" {
			return nil, false
		}

		return &Command{
			Action: CommandModify,
			ID:     uint(id),
			Field:  field,
			Value:  strings.TrimSpace(parts[2]),
		}, true
	}

	return nil, false
}
