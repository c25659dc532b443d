package retrieval

import (
	"context"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"fiscalchat/internal/contextutil"
	"fiscalchat/internal/documents"
)

// Flat bonus per question number found in a chunk. Invoice numbers are how
// users point at one specific row, so an exact number match outweighs any
// realistic word-overlap count.
const numberMatchBonus = 10

// minTokenRunes filters out short connective words ("de", "da", "os")
// without needing a stopword list.
const minTokenRunes = 3

// KeywordRetriever scores chunks by term overlap with the question. It needs
// no embedding model, which makes it the fallback when the semantic strategy
// is unavailable.
type KeywordRetriever struct {
	chunks []documents.Chunk
}

// NewKeywordRetriever creates a retriever over the given corpus. Chunks are
// expected in corpus order so ties resolve deterministically.
func NewKeywordRetriever(chunks []documents.Chunk) *KeywordRetriever {
	return &KeywordRetriever{chunks: chunks}
}

// Name identifies the strategy in logs and status reports.
func (r *KeywordRetriever) Name() string {
	return "keyword"
}

// Retrieve scores every chunk against the question and returns the top k.
// A chunk scores one point per occurrence of each question token, plus a
// flat bonus for each number from the question found in its text. Chunks
// scoring zero are never returned, even when fewer than k chunks match.
func (r *KeywordRetriever) Retrieve(ctx context.Context, question string, k int) ([]Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if k <= 0 {
		return nil, nil
	}

	tokens := tokenize(question)
	numbers := questionNumbers(question)

	scored := make([]Result, 0, len(r.chunks))
	for _, chunk := range r.chunks {
		textLower := strings.ToLower(chunk.Text)

		score := 0
		for _, token := range tokens {
			if utf8.RuneCountInString(token) < minTokenRunes {
				continue
			}
			score += strings.Count(textLower, token)
		}
		for _, number := range numbers {
			if strings.Contains(chunk.Text, number) {
				score += numberMatchBonus
			}
		}

		if score > 0 {
			scored = append(scored, Result{Chunk: chunk, Score: float32(score)})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.Index < scored[j].Chunk.Index
	})

	if len(scored) > k {
		scored = scored[:k]
	}

	logger.DebugContext(ctx, "keyword retrieval completed",
		"question_tokens", len(tokens),
		"question_numbers", len(numbers),
		"matched", len(scored),
		"k", k,
	)

	return scored, nil
}

// tokenize lowercases text and splits it into runs of letters and digits.
func tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}
	tokens := strings.Fields(builder.String())
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// questionNumbers extracts the distinct digit runs from a question, in order
// of first appearance.
func questionNumbers(question string) []string {
	var numbers []string
	seen := make(map[string]struct{})

	var current strings.Builder
	flush := func() {
		if current.Len() == 0 {
			return
		}
		number := current.String()
		current.Reset()
		if _, ok := seen[number]; ok {
			return
		}
		seen[number] = struct{}{}
		numbers = append(numbers, number)
	}

	for _, r := range question {
		if unicode.IsDigit(r) {
			current.WriteRune(r)
			continue
		}
		flush()
	}
	flush()

	return numbers
}
