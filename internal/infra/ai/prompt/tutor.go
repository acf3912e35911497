package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/clarify/internal/domain/homework"
)

const resultSchema = `Respond ONLY with valid JSON in this exact format:
{
  "originalText": "...",
  "translatedText": "...",
  "explanation": "...",
  "subject": "...",
  "sourceLanguage": "..."
}`

func gradeInstruction(grade string) string {
	if grade == "" {
		return ""
	}
	return fmt.Sprintf("The student is in %s. Adjust your language complexity, vocabulary, and explanation depth to be appropriate for this grade level.", grade)
}

func explanationInstruction(lang string, hints bool) string {
	if hints {
		return fmt.Sprintf(`**explanation**: Provide helpful HINTS in %s to guide the student toward solving this on their own. DO NOT give the complete solution. Instead, ask guiding questions, suggest which concepts to review, or give the first step only. Encourage critical thinking. For example, "What operation would help you isolate x?" or "Remember the order of operations: PEMDAS."`, lang)
	}
	return fmt.Sprintf(`**explanation**: Provide a clear, step-by-step explanation of how to solve or understand this homework in %s. Use simple language appropriate for a student. If it's math, show each step. If it's a reading/history/science assignment, explain the key concepts.`, lang)
}

// Analysis builds the tutor prompt for an image or typed homework request.
func Analysis(req homework.Request) string {
	lang := req.TargetLanguage.Label()
	var b strings.Builder

	b.WriteString("You are an expert tutor helping a student understand their homework.\n")
	if g := gradeInstruction(req.GradeLevel); g != "" {
		b.WriteString(g)
		b.WriteString("\n")
	}

	if req.Image != nil {
		b.WriteString("Analyze the image of homework and provide:\n\n")
		b.WriteString("1. **originalText**: Extract all text/problems visible in the image exactly as written.\n")
	} else {
		fmt.Fprintf(&b, "The student has typed in the following homework problem:\n\n%q\n\nProvide:\n", req.Text)
		b.WriteString("1. **originalText**: The homework text exactly as the student typed it.\n")
	}
	fmt.Fprintf(&b, "2. **translatedText**: Translate the text into %s.\n", lang)
	fmt.Fprintf(&b, "3. %s\n", explanationInstruction(lang, req.HintsMode))
	b.WriteString(`4. **subject**: Identify the subject (e.g., "Math", "Science", "History", "English", "Biology").` + "\n")
	b.WriteString(`5. **sourceLanguage**: The language the original homework is written in (e.g., "English").` + "\n\n")
	fmt.Fprintf(&b, "IMPORTANT: The explanation must be entirely in %s. Be thorough but brief, do not include unnecessary details. Do not use Markdown syntax when writing the explanation. Keep it to Plaintext.\n\n", lang)
	b.WriteString(resultSchema)
	return b.String()
}

// FollowUp asks for a plain-text answer grounded on the earlier explanation.
func FollowUp(question, priorExplanation string, lang homework.Language) string {
	l := lang.Label()
	return fmt.Sprintf(`You are a helpful tutor. A student previously received this homework explanation:

%q

The student is now asking a follow-up question in %s: %q

Please answer their question clearly and helpfully in %s. Use simple language appropriate for a student. Be encouraging.

Respond with ONLY your answer text, no JSON or formatting wrappers.`, priorExplanation, l, question, l)
}
