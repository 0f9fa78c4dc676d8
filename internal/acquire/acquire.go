package acquire

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/hashicorp/go-getter"
	"go.uber.org/zap"
)

// MarkerFile identifies the root of a dbt project inside an extracted
// archive. Archives wrap the project in one or more leading directories
// (GitHub zips do), so the root is found by searching for this file.
const MarkerFile = "dbt_project.yml"

var (
	// ErrNoMarker indicates an archive that contains no dbt project.
	ErrNoMarker = errors.New("dbt_project.yml not found in archive")
	// ErrEmptySource indicates a Source with neither a zip URL nor a repository URL.
	ErrEmptySource = errors.New("source has no zip or repository URL")
)

// Source references an external project: a zip archive URL or a git
// repository URL. Exactly one should be set.
type Source struct {
	ZipURL  string
	RepoURL string
}

func Zip(url string) Source  { return Source{ZipURL: url} }
func Repo(url string) Source { return Source{RepoURL: url} }

// Acquirer populates local project directories from external sources.
// A populated directory is treated as a cache: its presence is the sole
// existence check, content is never validated or refreshed. The check is
// advisory only; two processes racing to populate the same path is not
// handled. Retry-on-failure is the pipeline's responsibility, not ours.
type Acquirer struct {
	log *zap.SugaredLogger
}

func New(log *zap.SugaredLogger) *Acquirer {
	return &Acquirer{log: log}
}

// Acquire ensures targetDir holds a copy of the project referenced by src.
// If targetDir already exists it is returned unchanged.
func (a *Acquirer) Acquire(ctx context.Context, src Source, targetDir string) (string, error) {
	if _, err := os.Stat(targetDir); err == nil {
		a.log.Infow("using cached project", "path", targetDir)
		return targetDir, nil
	}

	switch {
	case src.ZipURL != "":
		return a.fetchArchive(ctx, src.ZipURL, targetDir)
	case src.RepoURL != "":
		return a.clone(ctx, src.RepoURL, targetDir)
	default:
		return "", ErrEmptySource
	}
}

// fetchArchive downloads and extracts a zip archive into a staging directory
// next to targetDir, locates the project root by marker file, and moves that
// subtree into place. Staging is removed on every exit path.
func (a *Acquirer) fetchArchive(ctx context.Context, zipURL, targetDir string) (string, error) {
	parent := filepath.Dir(targetDir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", parent, err)
	}

	staging, err := os.MkdirTemp(parent, ".staging-*")
	if err != nil {
		return "", fmt.Errorf("create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	a.log.Infow("downloading archive", "url", zipURL)
	client := &getter.Client{
		Ctx:           ctx,
		Src:           zipURL,
		Dst:           staging,
		Mode:          getter.ClientModeDir,
		Getters:       getter.Getters,
		Decompressors: getter.Decompressors,
	}
	if err := client.Get(); err != nil {
		return "", fmt.Errorf("download %s: %w", zipURL, err)
	}

	root, err := findProjectRoot(staging)
	if err != nil {
		return "", err
	}
	if err := os.Rename(root, targetDir); err != nil {
		return "", fmt.Errorf("move project into place: %w", err)
	}
	a.log.Infow("extracted project", "path", targetDir)
	return targetDir, nil
}

// clone fetches a git repository into targetDir. A partial clone is removed
// so a later attempt starts from a clean path.
func (a *Acquirer) clone(ctx context.Context, repoURL, targetDir string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(targetDir), 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", filepath.Dir(targetDir), err)
	}

	a.log.Infow("cloning repository", "url", repoURL, "path", targetDir)
	if _, err := git.PlainCloneContext(ctx, targetDir, false, &git.CloneOptions{URL: repoURL}); err != nil {
		os.RemoveAll(targetDir)
		return "", fmt.Errorf("clone %s: %w", repoURL, err)
	}
	a.log.Infow("repository cloned", "path", targetDir)
	return targetDir, nil
}

// findProjectRoot returns the first directory under dir, in walk order,
// containing MarkerFile.
func findProjectRoot(dir string) (string, error) {
	var root string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == MarkerFile {
			root = filepath.Dir(path)
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("scan extracted archive: %w", err)
	}
	if root == "" {
		return "", ErrNoMarker
	}
	return root, nil
}
