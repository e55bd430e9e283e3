package resources

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	gh "github.com/google/go-github/v60/github"
)

// Option configures a Fetcher.
type Option func(*Fetcher) error

// WithBaseURL sends API requests to base instead of api.github.com.
func WithBaseURL(base string) Option {
	return func(f *Fetcher) error {
		_, err := withBaseURL(f.client, base)
		return err
	}
}

// WithLogger sets the fetcher's logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) error {
		f.logger = l
		return nil
	}
}

// Fetcher mirrors a repository directory to local disk.
type Fetcher struct {
	client *gh.Client
	logger *slog.Logger
}

// NewFetcher creates a fetcher. token may be empty.
func NewFetcher(token string, opts ...Option) (*Fetcher, error) {
	f := &Fetcher{client: NewClient(token), logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Fetch downloads every file under dir of repo ("owner/name") at ref into
// dest, keeping the layout below dir. It returns the local paths written.
func (f *Fetcher) Fetch(ctx context.Context, repo, ref, dir, dest string) ([]string, error) {
	owner, name, err := SplitRepo(repo)
	if err != nil {
		return nil, err
	}
	dir = strings.Trim(dir, "/")
	w := &walker{f: f, owner: owner, name: name, root: dir, dest: dest, opts: &gh.RepositoryContentGetOptions{Ref: ref}}
	if err := w.walk(ctx, dir); err != nil {
		return w.written, err
	}
	f.logger.Info("[FETCH] resources downloaded", "repo", repo, "ref", ref, "dir", dir, "files", len(w.written))
	return w.written, nil
}

type walker struct {
	f           *Fetcher
	owner, name string
	root, dest  string
	opts        *gh.RepositoryContentGetOptions
	written     []string
}

func (w *walker) walk(ctx context.Context, p string) error {
	file, entries, _, err := w.f.client.Repositories.GetContents(ctx, w.owner, w.name, p, w.opts)
	if err != nil {
		return fmt.Errorf("list %s: %w", p, err)
	}
	if file != nil {
		return w.save(ctx, file)
	}
	for _, e := range entries {
		switch e.GetType() {
		case "dir":
			if err := w.walk(ctx, e.GetPath()); err != nil {
				return err
			}
		case "file":
			if err := w.fetchFile(ctx, e); err != nil {
				return err
			}
		default:
			w.f.logger.Debug("[FETCH] skipping entry", "path", e.GetPath(), "type", e.GetType())
		}
	}
	return nil
}

func (w *walker) fetchFile(ctx context.Context, e *gh.RepositoryContent) error {
	file, _, _, err := w.f.client.Repositories.GetContents(ctx, w.owner, w.name, e.GetPath(), w.opts)
	if err != nil {
		return fmt.Errorf("get %s: %w", e.GetPath(), err)
	}
	if file == nil {
		return fmt.Errorf("get %s: not a file", e.GetPath())
	}
	return w.save(ctx, file)
}

func (w *walker) save(ctx context.Context, file *gh.RepositoryContent) error {
	local, err := w.localPath(file.GetPath())
	if err != nil {
		return err
	}

	var data []byte
	if file.GetEncoding() == "none" || (file.Content == nil && file.GetSize() > 0) {
		// Files over 1 MB come without inline content.
		rc, _, err := w.f.client.Repositories.DownloadContents(ctx, w.owner, w.name, file.GetPath(), w.opts)
		if err != nil {
			return fmt.Errorf("download %s: %w", file.GetPath(), err)
		}
		defer rc.Close()
		if data, err = io.ReadAll(rc); err != nil {
			return fmt.Errorf("download %s: %w", file.GetPath(), err)
		}
	} else {
		content, err := file.GetContent()
		if err != nil {
			return fmt.Errorf("decode %s: %w", file.GetPath(), err)
		}
		data = []byte(content)
	}

	if err := os.MkdirAll(filepath.Dir(local), 0755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(local), err)
	}
	if err := os.WriteFile(local, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", local, err)
	}
	w.written = append(w.written, local)
	w.f.logger.Debug("[FETCH] wrote file", "path", local, "bytes", len(data))
	return nil
}

// localPath maps a repository path below root into dest.
func (w *walker) localPath(repoPath string) (string, error) {
	rel := strings.TrimPrefix(repoPath, w.root)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		rel = path.Base(repoPath)
	}
	rel = filepath.FromSlash(rel)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("refusing to write %s outside %s", repoPath, w.dest)
	}
	return filepath.Join(w.dest, rel), nil
}
