package workflow

import "sort"

// ComputeDependents returns every stage id transitively reachable by following
// dependency edges backward from targetID: the blast radius of re-running that
// stage. The target itself is excluded and the result is duplicate-free and
// sorted for determinism.
//
// A nil plan, empty stage list, stages without an id, and missing dependency
// lists are skipped silently. Acyclicity is an external precondition (see
// DetectCycles); the visited set below keeps traversal bounded even on a
// cyclic plan.
func ComputeDependents(plan *Plan, targetID string) []string {
	if plan == nil || len(plan.Stages) == 0 || targetID == "" {
		return []string{}
	}

	// Reverse adjacency: dependency id -> ids of stages that depend on it.
	children := make(map[string][]string)
	for i := range plan.Stages {
		stage := &plan.Stages[i]
		if stage.ID == "" {
			continue
		}
		for _, dep := range stage.Dependencies {
			if dep == "" {
				continue
			}
			children[dep] = append(children[dep], stage.ID)
		}
	}

	visited := map[string]bool{targetID: true}
	queue := []string{targetID}
	var dependents []string

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range children[current] {
			if visited[child] {
				continue
			}
			visited[child] = true
			dependents = append(dependents, child)
			queue = append(queue, child)
		}
	}

	if dependents == nil {
		return []string{}
	}
	sort.Strings(dependents)
	return dependents
}

// DetectCycles detects circular dependencies in a plan and returns each cycle
// as a stage-id path. An empty result means the plan is a DAG.
func DetectCycles(plan *Plan) [][]string {
	if plan == nil {
		return nil
	}

	index := make(map[string]*Stage, len(plan.Stages))
	for i := range plan.Stages {
		if plan.Stages[i].ID != "" {
			index[plan.Stages[i].ID] = &plan.Stages[i]
		}
	}

	var cycles [][]string
	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	ids := make([]string, 0, len(index))
	for id := range index {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if !visited[id] {
			if cycle := detectCyclesDFS(index, id, visited, recStack, nil); len(cycle) > 0 {
				cycles = append(cycles, cycle)
			}
		}
	}

	return cycles
}

func detectCyclesDFS(index map[string]*Stage, id string, visited, recStack map[string]bool, path []string) []string {
	visited[id] = true
	recStack[id] = true
	path = append(path, id)

	stage, exists := index[id]
	if !exists {
		recStack[id] = false
		return nil
	}

	for _, depID := range stage.Dependencies {
		if _, known := index[depID]; !known {
			continue
		}
		if !visited[depID] {
			if cycle := detectCyclesDFS(index, depID, visited, recStack, path); len(cycle) > 0 {
				return cycle
			}
		} else if recStack[depID] {
			for i, pathID := range path {
				if pathID == depID {
					return append(append([]string(nil), path[i:]...), depID)
				}
			}
		}
	}

	recStack[id] = false
	return nil
}
