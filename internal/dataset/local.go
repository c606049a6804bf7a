package dataset

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type localConfig struct {
	Dir string `json:"dir"`
	Files
}

func init() {
	Register("local", createLocalLoader)
}

func createLocalLoader(args interface{}) (Loader, error) {
	cfg := &localConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("local dataset dir is required")
	}
	cfg.applyDefaults()
	dir := cfg.Dir
	return &fileLoader{
		typ:   "local",
		files: cfg.Files,
		open: func(ctx context.Context, name string) (io.ReadCloser, error) {
			_ = ctx
			if strings.Contains(name, "..") {
				return nil, fmt.Errorf("invalid dataset file name")
			}
			return os.Open(filepath.Join(dir, name))
		},
	}, nil
}
