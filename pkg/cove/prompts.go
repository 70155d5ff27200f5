package cove

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPromptNotFound is returned when a requested prompt file cannot be found.
var ErrPromptNotFound = errors.New("prompt not found")

// Placeholder tokens recognized in prompt templates.
const (
	tokenUserMessage    = "{{user_message}}"
	tokenBotMessage     = "{{bot_message}}"
	tokenVerificationQA = "{{verification_qa}}"
)

const defaultPlanTemplate = `Based on the following user query and bot response, generate a list of questions to verify the factual claims in the response.

User Query: "{{user_message}}"
Bot Response: "{{bot_message}}"

Verification Questions:`

const defaultSynthesizeTemplate = `Based on the original query, the initial response, and the following verification questions and answers, generate a final, verified response.

Original Query: "{{user_message}}"
Initial Response: "{{bot_message}}"

Verification Q&A:
{{verification_qa}}

Final Verified Response:`

// Prompts holds the templates for the planning and synthesis completions.
type Prompts struct {
	Plan       string
	Synthesize string
}

// DefaultPrompts returns the built-in templates.
func DefaultPrompts() Prompts {
	return Prompts{
		Plan:       defaultPlanTemplate,
		Synthesize: defaultSynthesizeTemplate,
	}
}

func (p Prompts) planPrompt(userMessage, botMessage string) string {
	return strings.NewReplacer(
		tokenUserMessage, userMessage,
		tokenBotMessage, botMessage,
	).Replace(p.Plan)
}

func (p Prompts) synthesisPrompt(userMessage, botMessage, verificationQA string) string {
	return strings.NewReplacer(
		tokenUserMessage, userMessage,
		tokenBotMessage, botMessage,
		tokenVerificationQA, verificationQA,
	).Replace(p.Synthesize)
}

// LoadPrompts reads plan.txt and synthesize.txt from the given directory,
// letting operators tune the verification prompts without a rebuild.
func LoadPrompts(dir string) (Prompts, error) {
	plan, err := readPrompt(dir, "plan")
	if err != nil {
		return Prompts{}, err
	}
	synthesize, err := readPrompt(dir, "synthesize")
	if err != nil {
		return Prompts{}, err
	}
	return Prompts{Plan: plan, Synthesize: synthesize}, nil
}

func readPrompt(dir, name string) (string, error) {
	path := filepath.Join(dir, name+".txt")
	//nolint:gosec // Prompt directory is configured by the operator.
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %q at %s", ErrPromptNotFound, name, path)
		}
		return "", fmt.Errorf("read prompt %q: %w", name, err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}
