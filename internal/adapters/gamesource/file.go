package gamesource

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rinkrat/featurecast/internal/domain/model"
)

// FileSource reads a JSON array of game records exported by the collector.
type FileSource struct {
	path string
}

// NewFileSource returns a source reading from path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Games loads and decodes the file.
func (s *FileSource) Games(ctx context.Context) ([]model.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read games file: %w", err)
	}
	var games []model.GameRecord
	if err := json.Unmarshal(data, &games); err != nil {
		return nil, fmt.Errorf("decode games file %s: %w", s.path, err)
	}
	return games, nil
}
