package embedding

import "fmt"

// Provider names accepted by New.
const (
	ProviderHashing = "hashing"
	ProviderONNX    = "onnx"
	ProviderOpenAI  = "openai"
	ProviderMock    = "mock"
)

// Options selects and configures an embedding provider.
type Options struct {
	Provider   string
	Dimensions int
	CacheSize  int // 0 disables caching

	// onnx
	ModelPath string
	MaxTokens int

	// openai
	Model   string
	BaseURL string
	APIKey  string
}

// New creates the embedder named by opts.Provider ("hashing" when empty), wrapped in a
// CachedEmbedder when opts.CacheSize is positive.
func New(opts Options) (Embedder, error) {
	var (
		e   Embedder
		err error
	)
	switch opts.Provider {
	case ProviderHashing, "":
		e = NewHashingEmbedder(opts.Dimensions)
	case ProviderMock:
		e = NewMockEmbedder(opts.Dimensions)
	case ProviderONNX:
		e, err = NewONNXEmbedder(opts.ModelPath, opts.Dimensions, opts.MaxTokens)
	case ProviderOpenAI:
		e, err = NewOpenAIEmbedder(OpenAIOptions{
			APIKey:     opts.APIKey,
			BaseURL:    opts.BaseURL,
			Model:      opts.Model,
			Dimensions: opts.Dimensions,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: hashing, onnx, openai, mock)", opts.Provider)
	}
	if err != nil {
		return nil, err
	}
	if opts.CacheSize <= 0 {
		return e, nil
	}
	cached, err := NewCachedEmbedder(e, opts.CacheSize)
	if err != nil {
		_ = e.Close()
		return nil, err
	}
	return cached, nil
}

// ValidProvider reports whether name is a known provider.
func ValidProvider(name string) bool {
	switch name {
	case ProviderHashing, ProviderONNX, ProviderOpenAI, ProviderMock, "":
		return true
	}
	return false
}
