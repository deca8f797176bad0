// Package prompt builds the per-batch LLM prompt: the fixed classification
// rules followed by a JSON rendering of the request scoped to one batch.
package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"tagsheet/internal/domain"
)

// DefaultRules is the classification contract every batch prompt opens with.
// Callers may replace it per job (user-edited in the web form) or via a
// configured rules file.
const DefaultRules = `You are a keyword classification expert. Your task is to categorize keywords using a JSON spec that supports two column modes: (A) predefined tags and (B) instruction-only columns where you must propose tags.

JSON schema:
* ` + "`keywords`" + `: array of strings
* ` + "`brands`" + `: array of strings
* ` + "`columns`" + `: array where each item is one of:
  - Predefined-tags column: ` + "`{ \"name\": string, \"tags\": string[] }`" + `
  - Instruction-only column: ` + "`{ \"name\": string, \"instructions\": string }`" + `

Rules:
1) One tag per column: For each keyword, select exactly ONE tag from each column, or leave blank if none apply.
2) Matching: Use exact or close semantic matching to choose tags.
3) Column isolation: Never reuse tags across columns. Tags belong only to their column.
4) Conservative blanks: If no tag fits well, leave the cell blank.
5) Instruction-only columns: For columns with ` + "`instructions`" + ` (and no ` + "`tags`" + `), first infer a small, coherent set of tags (concise phrases, non-overlapping), guided by the instructions and the provided keywords/brands. Then classify the keywords using ONLY those inferred tags. Do NOT invent wildly granular tags; prefer 3-10 clear options.
6) Do not output any explanations, the inferred tag list, or any extra text.

Output format:
Return ONLY a markdown table with:
* Column 1: "Original keyword"
* Subsequent columns: one per column using each column's ` + "`name`" + ` as the header
* Cells: the single selected tag for that column, or blank

Be precise, consistent, and avoid free-form text that isn't a tag.`

const maxRulesFileChars = 16000

// Build renders the prompt for one batch. The request's full brand and
// column context is kept; only the keywords are narrowed to the batch.
func Build(rules string, req domain.ClassificationRequest, batch []string) (string, error) {
	batchReq := req.WithKeywords(batch)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(batchReq); err != nil {
		return "", fmt.Errorf("encoding batch request: %w", err)
	}
	data := strings.TrimRight(buf.String(), "\n")

	return fmt.Sprintf("%s\n\n**JSON Data:**\n```json\n%s\n```\n\n**Task:** Classify these %d keywords according to the rules above. Return ONLY the markdown table with proper headers.",
		rules, data, len(batch)), nil
}

// LoadRulesFile reads a rules override file. The file is optional: a missing
// or unreadable file logs and returns "", leaving the caller on DefaultRules.
func LoadRulesFile(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("rules prompt file skipped path=%s err=%v", path, err)
		return ""
	}
	text := strings.TrimSpace(string(data))
	if len(text) > maxRulesFileChars {
		text = text[:maxRulesFileChars] + "\n...(truncated)"
	}
	return text
}
