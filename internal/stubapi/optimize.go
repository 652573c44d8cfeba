package stubapi

import (
	"encoding/base64"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// InputError is a request the API rejects with a 400.
type InputError struct {
	Detail string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Detail)
}

// maxKeywords bounds how many job keywords are considered.
const maxKeywords = 25

var wordPattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z+#.\-]*[a-zA-Z+#]|[a-zA-Z]`)

var stopWords = map[string]bool{
	"about": true, "above": true, "after": true, "also": true, "and": true, "are": true,
	"been": true, "being": true, "both": true, "candidate": true, "company": true,
	"each": true, "experience": true, "from": true, "have": true, "help": true,
	"including": true, "into": true, "more": true, "must": true, "other": true,
	"our": true, "over": true, "plus": true, "role": true, "should": true, "some": true,
	"team": true, "than": true, "that": true, "their": true, "them": true, "then": true,
	"there": true, "these": true, "they": true, "this": true, "those": true,
	"through": true, "using": true, "well": true, "were": true, "what": true,
	"when": true, "where": true, "which": true, "while": true, "will": true,
	"with": true, "within": true, "work": true, "working": true, "would": true,
	"years": true, "your": true, "you": true, "looking": true, "strong": true,
	"ability": true, "able": true, "join": true, "requirements": true,
	"responsibilities": true, "preferred": true, "required": true,
}

// Optimize scores resumeText against jobDescription and builds a response
// with a generated PDF. Blank input returns an *InputError.
func Optimize(resumeText, jobDescription string) (*OptimizeResponse, error) {
	resumeText = strings.TrimSpace(resumeText)
	jobDescription = strings.TrimSpace(jobDescription)
	if resumeText == "" || jobDescription == "" {
		return nil, &InputError{Detail: DetailEmptyInput}
	}

	keywords := Keywords(jobDescription)
	resumeWords := wordSet(resumeText)

	var matched, missing []string
	for _, kw := range keywords {
		if resumeWords[kw] {
			matched = append(matched, kw)
		} else {
			missing = append(missing, kw)
		}
	}

	name := candidateName(resumeText)
	skills := append(append([]string{}, matched...), missing...)
	sort.Strings(skills)

	doc := &resumeDocument{
		Name:    name,
		Summary: summary(matched, missing),
		Body:    resumeText,
		Skills:  skills,
	}
	pdf, err := doc.render()
	if err != nil {
		return nil, err
	}

	return &OptimizeResponse{
		OptimizedResumePDFBase64: base64.StdEncoding.EncodeToString(pdf),
		OriginalResumeText:       resumeText,
		OptimizedResumeJSON: map[string]any{
			"name":    name,
			"summary": doc.Summary,
			"skills":  skills,
		},
		MatchScore:  score(len(matched), len(keywords)),
		KeyChanges:  keyChanges(missing),
		Suggestions: suggestions(resumeText, missing),
	}, nil
}

// Keywords returns the distinct significant words of a job description in
// order of first appearance, lowercased.
func Keywords(text string) []string {
	seen := make(map[string]bool)
	var keywords []string
	for _, word := range wordPattern.FindAllString(text, -1) {
		word = strings.ToLower(word)
		if len(word) < 3 || stopWords[word] || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}

func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, word := range wordPattern.FindAllString(text, -1) {
		set[strings.ToLower(word)] = true
	}
	return set
}

// score maps keyword coverage onto 40-98 so even a weak resume gets a
// plausible baseline and nothing is ever perfect.
func score(matched, total int) float64 {
	if total == 0 {
		return 70
	}
	coverage := float64(matched) / float64(total)
	return math.Round((40+58*coverage)*10) / 10
}

// candidateName is the first non-empty line of the resume, when it looks
// like a name.
func candidateName(resumeText string) string {
	for _, line := range strings.Split(resumeText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(strings.Fields(line)) <= 5 && !strings.ContainsAny(line, "@:/0123456789") {
			return line
		}
		return ""
	}
	return ""
}

func summary(matched, missing []string) string {
	focus := append(append([]string{}, matched...), missing...)
	if len(focus) > 4 {
		focus = focus[:4]
	}
	if len(focus) == 0 {
		return "Results-driven professional with a record of delivering impact."
	}
	return "Results-driven professional experienced in " + strings.Join(focus, ", ") + "."
}

func keyChanges(missing []string) []string {
	changes := []string{
		"Rewrote the professional summary to target the role",
		"Reordered sections for ATS parsing",
	}
	for i, kw := range missing {
		if i == 3 {
			break
		}
		changes = append(changes, fmt.Sprintf("Added keyword %q from the job description", kw))
	}
	return changes
}

func suggestions(resumeText string, missing []string) []string {
	out := []string{}
	if !strings.ContainsAny(resumeText, "0123456789%") {
		out = append(out, "Quantify your achievements with numbers and percentages")
	}
	if len(missing) > 3 {
		out = append(out, fmt.Sprintf("Consider covering %s if you have that experience", strings.Join(missing[3:min(len(missing), 6)], ", ")))
	}
	if len(strings.Fields(resumeText)) < 150 {
		out = append(out, "Expand your experience section with concrete project details")
	}
	return out
}
