package menu

// BuildRoutes converts a flat, pre-sorted menu list into the UI-navigation
// tree rooted at parentID. Hidden nodes are dropped. Each node's component is
// the concatenation of its ancestors' paths plus its own; top-level nodes use
// the fixed layout component instead. Sibling order follows input order, so
// callers pass menus sorted by (sort, id).
func BuildRoutes(menus []Menu, parentID int64, basePath string) []RouteNode {
	var tree []RouteNode
	for _, m := range menus {
		if m.ParentID != parentID || m.Hidden {
			continue
		}

		fullPath := basePath + m.Path
		component := fullPath
		if basePath == "" {
			component = rootComponent
		}

		node := RouteNode{
			Component: component,
			Meta:      RouteMeta{Title: m.Title, Icon: m.Icon},
			Name:      m.Permission,
			Path:      fullPath,
		}
		if children := BuildRoutes(menus, m.ID, fullPath); len(children) > 0 {
			node.Children = children
		}
		tree = append(tree, node)
	}
	return tree
}

// BuildRaw converts a flat, pre-sorted menu list into the storage-shaped tree
// rooted at parentID. Hidden nodes are included.
func BuildRaw(menus []Menu, parentID int64) []RawNode {
	var tree []RawNode
	for _, m := range menus {
		if m.ParentID != parentID {
			continue
		}
		node := RawNode{Menu: m}
		if children := BuildRaw(menus, m.ID); len(children) > 0 {
			node.Children = children
		}
		tree = append(tree, node)
	}
	return tree
}

// descendantIDs returns the transitive closure of children of rootID. The
// visited set guards against cycles in corrupt parent/child data.
func descendantIDs(menus []Menu, rootID int64) []int64 {
	children := make(map[int64][]int64, len(menus))
	for _, m := range menus {
		children[m.ParentID] = append(children[m.ParentID], m.ID)
	}

	visited := map[int64]struct{}{rootID: {}}
	var ids []int64
	stack := append([]int64(nil), children[rootID]...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}
		ids = append(ids, id)
		stack = append(stack, children[id]...)
	}
	return ids
}

// isAncestor reports whether candidate is id itself or one of its ancestors.
// Walks parent links with a visited set so cyclic data terminates.
func isAncestor(menus []Menu, id, candidate int64) bool {
	parents := make(map[int64]int64, len(menus))
	for _, m := range menus {
		parents[m.ID] = m.ParentID
	}

	visited := make(map[int64]struct{})
	for cur := candidate; cur != RootID; cur = parents[cur] {
		if cur == id {
			return true
		}
		if _, seen := visited[cur]; seen {
			return false
		}
		visited[cur] = struct{}{}
		if _, ok := parents[cur]; !ok {
			return false
		}
	}
	return false
}
