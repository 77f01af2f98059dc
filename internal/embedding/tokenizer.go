package embedding

import (
	"hash/fnv"
	"strings"
)

// XLM-RoBERTa special token IDs, matching the vocabulary of the multilingual
// MiniLM family.
const (
	tokenBOS       = 0 // <s>
	tokenPad       = 1 // <pad>
	tokenEOS       = 2 // </s>
	vocabSize      = 250002
	firstRegularID = 3
)

// Tokenizer converts text into model inputs: input_ids, attention_mask and
// token_type_ids, all padded to maxTokens.
type Tokenizer interface {
	Encode(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

// HashTokenizer is a whitespace tokenizer that hashes each lowercased word
// into the XLM-R vocabulary range. It is not the model's real sentencepiece
// tokenizer, but it is deterministic and language-agnostic, which is all the
// pipeline contract requires.
type HashTokenizer struct{}

// Encode splits text on whitespace and produces padded token IDs with BOS/EOS
// markers. Words beyond maxTokens-2 are truncated.
func (t *HashTokenizer) Encode(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens < 2 {
		maxTokens = 2
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)
	for i := range inputIDs {
		inputIDs[i] = tokenPad
	}

	inputIDs[0] = tokenBOS
	attentionMask[0] = 1

	pos := 1
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if pos >= maxTokens-1 {
			break
		}
		inputIDs[pos] = hashTokenID(word)
		attentionMask[pos] = 1
		pos++
	}
	inputIDs[pos] = tokenEOS
	attentionMask[pos] = 1
	return inputIDs, attentionMask, tokenTypeIDs
}

// hashTokenID maps a word into [firstRegularID, vocabSize).
func hashTokenID(word string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(word))
	return firstRegularID + int64(h.Sum64()%(vocabSize-firstRegularID))
}
