package commands

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/lox/walletwise/internal/embeddings"
)

// SetupVectorStorage opens the on-disk vector store under dataDir
func SetupVectorStorage(dataDir string, provider embeddings.Provider, logger *log.Logger) (embeddings.VectorStorage, error) {
	vectorStorage, err := embeddings.NewChromemStorage(dataDir, provider, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create vector storage: %w", err)
	}
	return vectorStorage, nil
}
