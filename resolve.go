package fatfs

import (
	"strings"

	"github.com/aligator/checkpoint"
)

// lookupResult describes where a path landed: the directory cluster holding
// the final entry, the slot inside it and a copy of the record. For the
// root path the record is synthesized and the parent fields carry no
// meaning; callers that mutate must treat the root specially.
type lookupResult struct {
	name          string
	found         bool
	parentCluster uint16
	entryIndex    int
	entryCluster  uint16
	entry         DirEntry
}

// splitPath validates that path is absolute and returns its components with
// empty ones discarded, so "/", "//" and "/a//b" behave like their clean
// forms.
func splitPath(path string) ([]string, error) {
	if path == "" || path[0] != '/' {
		return nil, checkpoint.From(ErrInvalidPath)
	}
	var components []string
	for _, c := range strings.Split(path, "/") {
		if c != "" {
			components = append(components, c)
		}
	}
	return components, nil
}

// splitParent splits path into the path of its parent directory and the
// final component. The root itself has no parent and is rejected.
func splitParent(path string) (parent, name string, err error) {
	components, err := splitPath(path)
	if err != nil {
		return "", "", err
	}
	if len(components) == 0 {
		return "", "", checkpoint.From(ErrInvalidPath)
	}
	name = components[len(components)-1]
	parent = "/" + strings.Join(components[:len(components)-1], "/")
	return parent, name, nil
}

// resolve walks an absolute path from the root directory cluster. A missing
// component yields found=false with parentCluster left at the last
// directory that did resolve; only I/O failures return an error.
func (fs *Fs) resolve(path string) (lookupResult, error) {
	result := lookupResult{parentCluster: RootCluster}

	components, err := splitPath(path)
	if err != nil {
		return result, err
	}

	// The root is not stored as an entry anywhere, so it is synthesized.
	if len(components) == 0 {
		result.found = true
		result.name = "/"
		result.entryCluster = RootCluster
		result.entry.setName("/")
		result.entry.Attribute = AttrDirectory
		result.entry.FirstCluster = RootCluster
		return result, nil
	}

	current := uint16(RootCluster)
	for _, component := range components {
		result.name = component

		dir, err := fs.readDirCluster(current)
		if err != nil {
			return result, err
		}

		matched := false
		for i := range dir {
			e := &dir[i]
			if !e.InUse() || e.EntryName() != component {
				continue
			}
			result.parentCluster = current
			result.entryIndex = i
			result.entryCluster = e.FirstCluster
			result.entry = *e

			current = e.FirstCluster
			matched = true
			break
		}

		if !matched {
			result.found = false
			result.parentCluster = current
			return result, nil
		}
	}

	result.found = true
	return result, nil
}
