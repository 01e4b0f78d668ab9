package fossil

// ByID indexes visible records by id.
func ByID(records []Record) map[string]*Record {
	m := make(map[string]*Record, len(records))
	for i := range records {
		if records[i].Visible() {
			m[records[i].ID] = &records[i]
		}
	}
	return m
}

// Children maps a visible parent id to the ids of visible records that re-enter it.
// Dangling and self references are dropped.
func Children(records []Record) map[string][]string {
	visible := ByID(records)
	children := make(map[string][]string)
	for i := range records {
		r := &records[i]
		if !r.Visible() {
			continue
		}
		parent := r.Parent()
		if parent == "" {
			continue
		}
		if _, ok := visible[parent]; !ok {
			continue
		}
		children[parent] = append(children[parent], r.ID)
	}
	return children
}

// ChainRoot walks ReentryOf links up from id and returns the topmost visible ancestor.
// A cycle stops the walk at the last id seen before the repeat.
func ChainRoot(byID map[string]*Record, id string) string {
	current := id
	visited := map[string]bool{}
	for {
		visited[current] = true
		r, ok := byID[current]
		if !ok {
			return current
		}
		parent := r.Parent()
		if parent == "" || visited[parent] {
			return current
		}
		if _, ok := byID[parent]; !ok {
			return current
		}
		current = parent
	}
}

// ChainMembers returns every id in the re-entry chain containing id: the chain
// root and all of its transitive descendants. id itself is always included.
func ChainMembers(records []Record, id string) map[string]bool {
	byID := ByID(records)
	children := Children(records)

	root := ChainRoot(byID, id)
	members := map[string]bool{root: true}
	queue := []string{root}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range children[current] {
			if members[child] {
				continue
			}
			members[child] = true
			queue = append(queue, child)
		}
	}
	members[id] = true
	return members
}
