package embedding

import (
	"os"
	"path/filepath"
)

// ONNXConfig describes a model directory or file for the ONNX backend.
type ONNXConfig struct {
	// ModelPath is a .onnx file or a directory containing model.onnx.
	ModelPath string
	// VocabPath defaults to vocab.txt next to the model. Without a vocabulary
	// the SimpleTokenizer is used.
	VocabPath  string
	Dimensions int
	MaxTokens  int
	// OutputName is the pooled output tensor name (default "output").
	OutputName string
	Lowercase  bool
}

func (c *ONNXConfig) applyDefaults() {
	if info, err := os.Stat(c.ModelPath); err == nil && info.IsDir() {
		c.ModelPath = filepath.Join(c.ModelPath, "model.onnx")
	}
	if c.VocabPath == "" {
		c.VocabPath = filepath.Join(filepath.Dir(c.ModelPath), "vocab.txt")
	}
	if c.Dimensions <= 0 {
		c.Dimensions = 768
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 256
	}
	if c.OutputName == "" {
		c.OutputName = "output"
	}
}

func (c *ONNXConfig) tokenizer() Tokenizer {
	if tok, err := LoadWordPiece(c.VocabPath, c.Lowercase); err == nil {
		return tok
	}
	return &SimpleTokenizer{}
}
