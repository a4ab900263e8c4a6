package dataset

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
)

var imageRegexp = regexp.MustCompile(`(?i)\.(png|jpe?g)$`)

// DiscoverImages walks root and returns a map from image file name to its
// full path. Duplicate file names under the same root are an error because
// labels reference images by name alone.
func DiscoverImages(root string) (map[string]string, error) {
	found := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !imageRegexp.MatchString(d.Name()) {
			return nil
		}
		if prev, ok := found[d.Name()]; ok {
			return fmt.Errorf("duplicate image name %s (%s and %s)", d.Name(), prev, path)
		}
		found[d.Name()] = path
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover images: %w", err)
	}
	return found, nil
}
