package eval

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Response is one model output in a responses file.
type Response struct {
	Identifier string `json:"identifier"`
	Output     string `json:"llm_output"`
}

// LoadResponses reads a JSON array of responses.
func LoadResponses(path string) ([]Response, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read responses: %w", err)
	}
	var resps []Response
	if err := json.Unmarshal(data, &resps); err != nil {
		return nil, fmt.Errorf("parse responses %s: %w", path, err)
	}
	for i, r := range resps {
		if strings.TrimSpace(r.Identifier) == "" {
			return nil, fmt.Errorf("responses %s: entry %d has no identifier", path, i)
		}
	}
	return resps, nil
}

// Tasks turns responses into tasks of one scene. The identifier is the
// task's file id and its name in the evaluation log. Duplicate identifiers
// keep the last response.
func Tasks(resps []Response, sceneID int) []Task {
	index := make(map[string]int, len(resps))
	tasks := make([]Task, 0, len(resps))
	for _, r := range resps {
		t := Task{Name: r.Identifier, SceneID: sceneID, FileID: r.Identifier, Output: r.Output}
		if i, ok := index[r.Identifier]; ok {
			tasks[i] = t
			continue
		}
		index[r.Identifier] = len(tasks)
		tasks = append(tasks, t)
	}
	return tasks
}

// TaskNames returns the names of tasks in order.
func TaskNames(tasks []Task) []string {
	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = t.Name
	}
	return names
}

// GoalFile maps "scene_<id>" to file ids to goal formulas.
type GoalFile map[string]map[string]string

// LoadGoals reads a goal file.
func LoadGoals(path string) (GoalFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read goals: %w", err)
	}
	var g GoalFile
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parse goals %s: %w", path, err)
	}
	return g, nil
}

// Goal implements GoalSource.
func (g GoalFile) Goal(sceneID int, fileID string) (string, error) {
	key := fmt.Sprintf("scene_%d", sceneID)
	files, ok := g[key]
	if !ok {
		return "", fmt.Errorf("no goals for %s", key)
	}
	formula, ok := files[fileID]
	if !ok {
		return "", fmt.Errorf("no goal for %s file %s", key, fileID)
	}
	return formula, nil
}
