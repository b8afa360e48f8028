package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

// Chain snapshot files tried in order for each symbol.
var chainExtensions = []string{".json", ".json.gz", ".json.zst"}

// FileProvider serves recorded chain snapshots from a directory, one file
// per symbol ({SYMBOL}.json, optionally gzip or zstd compressed). Used for
// offline analysis and replay without hitting the live provider.
type FileProvider struct {
	dir    string
	logger *zap.Logger
}

func NewFileProvider(dir string, logger *zap.Logger) *FileProvider {
	return &FileProvider{dir: dir, logger: logger}
}

func (p *FileProvider) GetQuote(_ context.Context, symbol string) (*Quote, error) {
	chain, err := p.loadChain(symbol)
	if err != nil {
		return nil, err
	}
	return &Quote{Symbol: chain.Symbol, Price: chain.Spot}, nil
}

func (p *FileProvider) GetOptionChain(_ context.Context, symbol string) (*OptionChain, error) {
	return p.loadChain(symbol)
}

func (p *FileProvider) loadChain(symbol string) (*OptionChain, error) {
	for _, ext := range chainExtensions {
		path := filepath.Join(p.dir, symbol+ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		chain, err := LoadChainFile(path)
		if err != nil {
			return nil, err
		}
		p.logger.Debug("loaded chain snapshot",
			zap.String("symbol", symbol),
			zap.String("path", path),
		)
		return chain, nil
	}
	return nil, ErrNotFound
}

// LoadChainFile reads one chain snapshot, transparently decompressing by
// file extension.
func LoadChainFile(path string) (*OptionChain, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening chain file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var reader io.Reader = f
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer func() { _ = gz.Close() }()
		reader = gz
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer zr.Close()
		reader = zr
	}

	var chain OptionChain
	if err := json.NewDecoder(reader).Decode(&chain); err != nil {
		return nil, fmt.Errorf("decoding chain file %s: %w", filepath.Base(path), err)
	}

	if chain.Symbol == "" {
		base := filepath.Base(path)
		chain.Symbol = strings.SplitN(base, ".", 2)[0]
	}

	return &chain, nil
}
