package sim

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/cgast/sgeval/pkg/checker"
	"github.com/cgast/sgeval/pkg/scene"
)

// DirLoader loads initial scenes from <Root>/scene_<id>/<file_id>.json.
type DirLoader struct {
	Root   string
	Logger *slog.Logger
}

// Path returns the scene file for a task.
func (l DirLoader) Path(sceneID int, fileID string) string {
	return filepath.Join(l.Root, fmt.Sprintf("scene_%d", sceneID), fileID+".json")
}

// Load returns a fresh planner over the task's initial scene.
func (l DirLoader) Load(ctx context.Context, sceneID int, fileID string) (checker.Planner, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g, err := scene.Load(l.Path(sceneID, fileID))
	if err != nil {
		return nil, err
	}
	var opts []Option
	if l.Logger != nil {
		opts = append(opts, WithLogger(l.Logger))
	}
	return New(g, opts...), nil
}
