package rulebook

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	sheeterr "github.com/KirkDiggler/pf2e-sheet/internal/errors"
)

// LoadDir reads every *.json file under dir into a Store. Files hold
// either a single item or an array of items. Loading happens once at
// startup; the files are read concurrently.
func LoadDir(ctx context.Context, dir string) (*Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, sheeterr.Wrapf(err, "failed to read content dir %q", dir)
	}

	var mu sync.Mutex
	var items []*Item

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			loaded, err := loadFile(path)
			if err != nil {
				return err
			}
			mu.Lock()
			items = append(items, loaded...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return NewStore(items), nil
}

func loadFile(path string) ([]*Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, sheeterr.Wrapf(err, "failed to read content file %q", path)
	}

	var many []*Item
	if err := json.Unmarshal(data, &many); err == nil {
		return many, nil
	}

	var one Item
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, sheeterr.WrapWithCode(err, sheeterr.CodeValidation,
			"content file "+path+" is neither an item nor an item array")
	}
	return []*Item{&one}, nil
}
