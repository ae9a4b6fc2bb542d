package keyterms

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leonardotrapani/livekeyterms/internal/history"
)

// BuildInitialPrompt asks for the proper nouns found in the caller's previous
// conversations, padded with domain vocabulary to exactly cfg.MaxKeyterms.
func BuildInitialPrompt(records []history.Record, cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are helping improve speech recognition accuracy for a %s system.\n\n", cfg.Domain)
	b.WriteString("TASK: Extract ALL proper nouns from the conversation history below and return them as keyterms for ASR boosting.\n\n")

	b.WriteString("CRITICAL - THE FIRST 30+ KEYTERMS MUST BE PROPER NOUNS FROM THE TEXT:\n")
	b.WriteString("1. All PERSON NAMES, exactly as spelled:\n")
	b.WriteString("   - Full names with titles (e.g., \"Dr. Firstname Lastname\") and without titles\n")
	b.WriteString("   - First names alone and last names alone\n")
	b.WriteString("   - HYPHENATED NAMES: ASR processes words individually, so for \"Mary Smith-Jones\" include \"Smith-Jones\" AND each part: \"Smith\", \"Jones\"\n")
	b.WriteString("   - Keep diacritics/accents from the original (é, á, ü, etc.)\n")
	b.WriteString("2. All PLACE/ORGANIZATION NAMES, exactly as spelled:\n")
	b.WriteString("   - Full names plus the distinctive word ASR would struggle with\n")
	b.WriteString("   - HYPHENATED PLACES follow the same rule: \"Winston-Salem\", \"Winston\", \"Salem\"\n")
	b.WriteString("3. All MEDICATION NAMES, exactly as spelled\n\n")

	b.WriteString("ASR struggles with phonetically ambiguous words such as Irish names (\"Siobhan\", \"Niamh\"), ")
	b.WriteString("Polish names (\"Kowalczyk\", \"Brzezinski\"), African names (\"Oluwaseun\"), ")
	b.WriteString("Native American place names (\"Natchitoches\") and medical terms (\"Omeprazole\"). ")
	b.WriteString("Use the EXACT spelling from the conversation history.\n\n")

	b.WriteString("PREVIOUS CONVERSATIONS:\n")
	b.WriteString(history.Join(records, "\n\n"))
	b.WriteString("\n\n")

	b.WriteString("OUTPUT FORMAT:\n")
	fmt.Fprintf(&b, "Return ONLY a JSON array of exactly %d strings. The first 30+ MUST be the exact proper nouns extracted from the conversations above. ", cfg.MaxKeyterms)
	fmt.Fprintf(&b, "Fill remaining slots with common %s terms.\n", cfg.Domain)
	b.WriteString("Do NOT include the word \"clinic\", it sounds like \"calling\" and causes transcription errors.\n")
	b.WriteString("No explanation or markdown, just the JSON array.")

	return b.String()
}

// BuildRefreshPrompt asks for an updated list given the live transcript so
// far, a preview of the current list and the most recent history records.
func BuildRefreshPrompt(current []string, transcript string, records []history.Record, cfg Config) string {
	preview := current
	if len(preview) > cfg.PreviewSize {
		preview = preview[:cfg.PreviewSize]
	}
	previewJSON, err := json.Marshal(preview)
	if err != nil || preview == nil {
		previewJSON = []byte("[]")
	}

	var b strings.Builder

	fmt.Fprintf(&b, "You are helping improve speech recognition accuracy for a %s call in progress.\n\n", cfg.Domain)

	b.WriteString("CURRENT SITUATION:\n")
	fmt.Fprintf(&b, "- This is a live call about %s\n", cfg.Domain)
	b.WriteString("- Below is what has been transcribed so far in this call\n")
	b.WriteString("- You also have the keyterms currently in use and previous conversation history\n\n")

	fmt.Fprintf(&b, "TASK: Generate an updated list of exactly %d keyterms optimized for what might be said next in this conversation.\n\n", cfg.MaxKeyterms)

	b.WriteString("STRATEGY:\n")
	b.WriteString("1. Keep keyterms that are still relevant to the conversation\n")
	b.WriteString("2. Add entities or topics mentioned in this call that are missing from the list\n")
	b.WriteString("3. Drop keyterms that seem unlikely given where the conversation is going\n")
	b.WriteString("4. Prioritize terms likely to come up next\n")
	b.WriteString("5. Include any names, locations, medical terms, or housing terms mentioned in this call\n\n")

	b.WriteString("CRITICAL:\n")
	b.WriteString("- The transcript may contain MISHEARD words. When a word looks like a phonetically mangled version of a name or medication from the history, include the CORRECT spelling from the history and NOT the misheard version.\n\n")

	b.WriteString("CURRENT KEYTERMS (may keep, modify, or replace):\n")
	b.Write(previewJSON)
	b.WriteString("... (truncated)\n\n")

	b.WriteString("CURRENT CALL TRANSCRIPT:\n")
	b.WriteString(transcript)
	b.WriteString("\n\n")

	b.WriteString("RECENT CONVERSATION HISTORY (for context):\n")
	b.WriteString(history.Join(history.Last(records, cfg.HistoryWindow), "\n"))
	b.WriteString("\n\n")

	b.WriteString("OUTPUT FORMAT:\n")
	fmt.Fprintf(&b, "Return ONLY a JSON array of exactly %d strings, each a keyterm of %d characters or less.\n", cfg.MaxKeyterms, cfg.MaxTermLength)
	b.WriteString("No explanation or markdown, just the JSON array.")

	return b.String()
}
