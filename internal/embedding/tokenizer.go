package embedding

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// Tokenizer produces token IDs for BERT-style models (input_ids, attention_mask, token_type_ids).
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

const (
	clsID = 101
	sepID = 102
	unkID = 100
)

// SimpleTokenizer is a word-split tokenizer with hash-based token IDs, used when a
// model ships without a vocabulary.
type SimpleTokenizer struct{}

// Tokenize splits text into words and produces padded token IDs up to maxTokens.
func (t *SimpleTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	words := SplitWords(text)
	ids := make([]int64, len(words))
	for i, w := range words {
		ids[i] = int64(HashString(w) % 30000)
	}
	return pack(ids, clsID, sepID, maxTokens)
}

// WordPieceTokenizer implements greedy longest-match-first WordPiece over a
// BERT vocab.txt, with basic whitespace and punctuation pre-splitting.
type WordPieceTokenizer struct {
	vocab     map[string]int64
	lowercase bool
	cls, sep  int64
	unk       int64
}

// LoadWordPiece reads a vocab.txt with one token per line; the line number is the token id.
func LoadWordPiece(path string, lowercase bool) (*WordPieceTokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocab: %w", err)
	}
	defer f.Close()

	vocab := make(map[string]int64)
	sc := bufio.NewScanner(f)
	var id int64
	for sc.Scan() {
		vocab[strings.TrimRight(sc.Text(), "\r")] = id
		id++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vocab: %w", err)
	}
	return NewWordPiece(vocab, lowercase), nil
}

// NewWordPiece builds a tokenizer from an in-memory vocabulary.
func NewWordPiece(vocab map[string]int64, lowercase bool) *WordPieceTokenizer {
	t := &WordPieceTokenizer{vocab: vocab, lowercase: lowercase, cls: clsID, sep: sepID, unk: unkID}
	if id, ok := vocab["[CLS]"]; ok {
		t.cls = id
	}
	if id, ok := vocab["[SEP]"]; ok {
		t.sep = id
	}
	if id, ok := vocab["[UNK]"]; ok {
		t.unk = id
	}
	return t
}

// Tokenize produces padded token IDs up to maxTokens.
func (t *WordPieceTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if t.lowercase {
		text = strings.ToLower(text)
	}
	var ids []int64
	for _, word := range splitPunctuation(text) {
		ids = append(ids, t.wordPieces(word)...)
	}
	return pack(ids, t.cls, t.sep, maxTokens)
}

func (t *WordPieceTokenizer) wordPieces(word string) []int64 {
	runes := []rune(word)
	if len(runes) > 100 {
		return []int64{t.unk}
	}
	var out []int64
	for start := 0; start < len(runes); {
		end := len(runes)
		found := int64(-1)
		for end > start {
			piece := string(runes[start:end])
			if start > 0 {
				piece = "##" + piece
			}
			if id, ok := t.vocab[piece]; ok {
				found = id
				break
			}
			end--
		}
		if found < 0 {
			return []int64{t.unk}
		}
		out = append(out, found)
		start = end
	}
	return out
}

// splitPunctuation splits on whitespace and makes every punctuation rune its own word.
func splitPunctuation(text string) []string {
	var words []string
	for _, field := range strings.Fields(text) {
		start := 0
		for i, r := range field {
			if unicode.IsPunct(r) || unicode.IsSymbol(r) {
				if start < i {
					words = append(words, field[start:i])
				}
				words = append(words, string(r))
				start = i + len(string(r))
			}
		}
		if start < len(field) {
			words = append(words, field[start:])
		}
	}
	return words
}

// pack wraps ids in CLS/SEP, truncates to maxTokens and pads with zeros.
func pack(ids []int64, cls, sep int64, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	inputIDs[0] = cls
	attentionMask[0] = 1
	pos := 1
	for _, id := range ids {
		if pos >= maxTokens-1 {
			break
		}
		inputIDs[pos] = id
		attentionMask[pos] = 1
		pos++
	}
	if pos < maxTokens {
		inputIDs[pos] = sep
		attentionMask[pos] = 1
	}
	return inputIDs, attentionMask, tokenTypeIDs
}

// SplitWords splits text on whitespace and returns non-empty words, or nil.
func SplitWords(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	return words
}

// HashString returns a deterministic non-negative hash for use as a simple token ID.
func HashString(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	if h < 0 { // math.MinInt
		return 0
	}
	return h
}
