package cli

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/tracedeck/tracedeck/internal/api"
)

// presetsFile is the YAML shape of a filter presets file:
//
//	presets:
//	  last-week:
//	    start: 2024-01-01
//	    end: 2024-01-07
type presetsFile struct {
	Presets map[string]api.FilterParams `yaml:"presets"`
}

// LoadPresets reads named date-range filter presets from a YAML file.
func LoadPresets(path string) (map[string]api.FilterParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets file %s: %w", path, err)
	}

	var file presetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse presets file %s: %w", path, err)
	}

	return file.Presets, nil
}

// PresetNames returns the preset names in sorted order.
func PresetNames(presets map[string]api.FilterParams) []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WatchPresets watches a presets file and calls onChange with the reloaded
// presets whenever it is written. Watching the parent directory instead of
// the file itself survives editors that replace the file on save.
// The returned stop function closes the watcher.
func WatchPresets(path string, onChange func(map[string]api.FilterParams)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target := filepath.Clean(path)
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				presets, err := LoadPresets(path)
				if err != nil {
					log.Printf("⚠️  presets: reload failed: %v", err)
					continue
				}
				onChange(presets)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("⚠️  presets: watch error: %v", err)
			}
		}
	}()

	return func() { watcher.Close() }, nil
}
