package block

import "fmt"

type visitState uint8

const (
	unvisited visitState = iota
	visiting
	visited
)

// Validate checks that the workspace is a forest: no node is reachable twice,
// no link leads back to an ancestor, block ids are unique and nesting stays
// within MaxDepth. Decoded workspaces always pass the cycle checks; trees
// built in code may not.
func Validate(ws *Workspace) error {
	if ws == nil {
		return nil
	}
	v := validator{
		state: make(map[*Node]visitState),
		ids:   make(map[string]*Node),
	}
	for i, root := range ws.Roots {
		if root == nil {
			return structural(ErrDangling, "", fmt.Sprintf("blocks[%d]", i), nil)
		}
		if err := v.walk(root, fmt.Sprintf("blocks[%d]", i), 0); err != nil {
			return err
		}
	}
	return nil
}

type validator struct {
	state map[*Node]visitState
	ids   map[string]*Node
}

func (v *validator) walk(n *Node, path string, depth int) error {
	// цепочка next обходится циклом, вложенность — рекурсией
	var chain []*Node
	defer func() {
		for _, c := range chain {
			v.state[c] = visited
		}
	}()
	for cur := n; cur != nil; cur = cur.Next {
		switch v.state[cur] {
		case visiting:
			return structural(ErrCycle, cur.Label(), path, nil)
		case visited:
			return structural(ErrSharedNode, cur.Label(), path, nil)
		}
		if depth > MaxDepth {
			return structural(ErrTooDeep, cur.Label(), path, fmt.Errorf("nesting exceeds %d", MaxDepth))
		}
		if cur.ID != "" {
			if other, ok := v.ids[cur.ID]; ok && other != cur {
				return structural(ErrSharedNode, cur.Label(), path, fmt.Errorf("duplicate block id %q", cur.ID))
			}
			v.ids[cur.ID] = cur
		}
		v.state[cur] = visiting
		chain = append(chain, cur)

		for _, name := range sortedKeys(cur.Inputs) {
			if err := v.walk(cur.Inputs[name], pathJoin(path, "inputs/"+name), depth+1); err != nil {
				return err
			}
		}
		for _, name := range sortedKeys(cur.Statements) {
			if err := v.walk(cur.Statements[name], pathJoin(path, "statements/"+name), depth+1); err != nil {
				return err
			}
		}
		path = pathJoin(path, "next")
	}
	return nil
}
