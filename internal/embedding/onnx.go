//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXEmbedder runs a sentence-transformer model exported to ONNX. The model
// is expected to take input_ids/attention_mask/token_type_ids and return
// last_hidden_state of shape (batch, tokens, dimensions); the embedder
// applies attention-masked mean pooling followed by L2 normalization, the
// same recipe the model was trained with. Requires CGO and the onnxruntime
// shared library.
type ONNXEmbedder struct {
	session    *ort.DynamicAdvancedSession
	tokenizer  Tokenizer
	cache      *Cache
	dimensions int
	maxTokens  int
	// onnxruntime sessions are not documented as re-entrant; Run is serialized.
	mu sync.Mutex
}

// NewONNXEmbedder loads the ONNX model at modelPath. The environment is
// initialized on first use. cacheSize bounds the query embedding cache.
func NewONNXEmbedder(modelPath string, dimensions, maxTokens, cacheSize int) (*ONNXEmbedder, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}
	if maxTokens <= 0 {
		maxTokens = 128
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
		}
	}
	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load ONNX model %s: %w", modelPath, err)
	}
	return &ONNXEmbedder{
		session:    session,
		tokenizer:  &HashTokenizer{},
		cache:      NewCache(cacheSize),
		dimensions: dimensions,
		maxTokens:  maxTokens,
	}, nil
}

// Embed returns the embedding for a single text, consulting the cache first.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := e.cache.Get(text); ok {
		return cached, nil
	}
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	e.cache.Put(text, vectors[0])
	return vectors[0], nil
}

// EmbedBatch runs one inference over all texts and returns one normalized
// vector per text, in input order.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := len(texts)
	flatIDs := make([]int64, n*e.maxTokens)
	flatMask := make([]int64, n*e.maxTokens)
	flatTypes := make([]int64, n*e.maxTokens)
	for i, text := range texts {
		ids, mask, types := e.tokenizer.Encode(text, e.maxTokens)
		copy(flatIDs[i*e.maxTokens:], ids)
		copy(flatMask[i*e.maxTokens:], mask)
		copy(flatTypes[i*e.maxTokens:], types)
	}

	inputShape := ort.NewShape(int64(n), int64(e.maxTokens))
	idsTensor, err := ort.NewTensor(inputShape, flatIDs)
	if err != nil {
		return nil, fmt.Errorf("create input_ids tensor: %w", err)
	}
	defer idsTensor.Destroy()
	maskTensor, err := ort.NewTensor(inputShape, flatMask)
	if err != nil {
		return nil, fmt.Errorf("create attention_mask tensor: %w", err)
	}
	defer maskTensor.Destroy()
	typesTensor, err := ort.NewTensor(inputShape, flatTypes)
	if err != nil {
		return nil, fmt.Errorf("create token_type_ids tensor: %w", err)
	}
	defer typesTensor.Destroy()

	outputData := make([]float32, n*e.maxTokens*e.dimensions)
	outputTensor, err := ort.NewTensor(ort.NewShape(int64(n), int64(e.maxTokens), int64(e.dimensions)), outputData)
	if err != nil {
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	e.mu.Lock()
	err = e.session.Run(
		[]ort.ArbitraryTensor{idsTensor, maskTensor, typesTensor},
		[]ort.ArbitraryTensor{outputTensor},
	)
	e.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	hidden := outputTensor.GetData()
	vectors := make([][]float32, n)
	for i := 0; i < n; i++ {
		vectors[i] = meanPool(
			hidden[i*e.maxTokens*e.dimensions:(i+1)*e.maxTokens*e.dimensions],
			flatMask[i*e.maxTokens:(i+1)*e.maxTokens],
			e.dimensions,
		)
		NormalizeL2(vectors[i])
	}
	return vectors, nil
}

// meanPool averages token states where the attention mask is set.
func meanPool(hidden []float32, mask []int64, dimensions int) []float32 {
	pooled := make([]float32, dimensions)
	var count float32
	for t, m := range mask {
		if m == 0 {
			continue
		}
		count++
		row := hidden[t*dimensions : (t+1)*dimensions]
		for d, v := range row {
			pooled[d] += v
		}
	}
	if count > 0 {
		for d := range pooled {
			pooled[d] /= count
		}
	}
	return pooled
}

// Dimensions returns the embedding dimension.
func (e *ONNXEmbedder) Dimensions() int {
	return e.dimensions
}

// Close destroys the ONNX session.
func (e *ONNXEmbedder) Close() error {
	if e.session != nil {
		err := e.session.Destroy()
		e.session = nil
		return err
	}
	return nil
}
