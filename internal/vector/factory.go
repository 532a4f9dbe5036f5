package vector

import "fmt"

// Open creates a memory index of the given dimension and loads any vectors
// previously saved at path. A missing file yields an empty index.
func Open(path string, dimensions int) (*MemoryIndex, error) {
	idx, err := NewMemoryIndex(dimensions)
	if err != nil {
		return nil, err
	}
	if err := idx.Load(path); err != nil {
		return nil, fmt.Errorf("load vector index %s: %w", path, err)
	}
	return idx, nil
}
