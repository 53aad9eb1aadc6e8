package entities

// MergeProjects combines locally held projects with stored ones. Stored
// projects come first in their original order; a local project replaces the
// stored one with the same ID only when it was updated later, and local
// projects with unknown IDs are appended.
func MergeProjects(local, stored []*Project) []*Project {
	merged := make([]*Project, 0, len(stored)+len(local))
	index := make(map[string]int, len(stored)+len(local))

	for _, p := range stored {
		if i, ok := index[p.id.String()]; ok {
			merged[i] = p
			continue
		}
		index[p.id.String()] = len(merged)
		merged = append(merged, p)
	}

	for _, p := range local {
		i, ok := index[p.id.String()]
		if !ok {
			index[p.id.String()] = len(merged)
			merged = append(merged, p)
			continue
		}
		if p.updatedAt.After(merged[i].updatedAt) {
			merged[i] = p
		}
	}

	return merged
}
