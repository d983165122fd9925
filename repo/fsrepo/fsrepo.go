package fsrepo

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	config "github.com/ipfs/go-ipfs-lite/config"
	serialize "github.com/ipfs/go-ipfs-lite/config/serialize"
	"github.com/ipfs/go-ipfs-lite/misc/fsutil"
	"github.com/ipfs/go-ipfs-lite/repo"

	lockfile "github.com/ipfs/go-fs-lock"
	logging "github.com/ipfs/go-log/v2"
	"go.uber.org/multierr"
)

var log = logging.Logger("fsrepo")

// LockFile is the filename of the repo lock, relative to config dir
const LockFile = "repo.lock"

var (
	// ErrNotInitialized is returned by Open on a path without a config file.
	ErrNotInitialized = serialize.ErrNotInitialized
	// ErrLocked is returned by Remove while another FSRepo holds the lock.
	ErrLocked = errors.New("repo is locked by another process")
)

// FSRepo represents an IPFS FileSystem Repo. It is safe for use by multiple
// callers.
type FSRepo struct {
	mu sync.Mutex

	closed bool
	// path is the file-system path
	path string
	// lockfile is the file system lock to prevent others from opening
	// the same fsrepo path concurrently
	lockfile io.Closer
	config   *config.Config
	ds       repo.Datastore
}

var _ repo.Repo = (*FSRepo)(nil)

// Init initializes a new FSRepo at the given path with the provided
// config. An empty path means BestKnownPath.
func Init(repoPath string, conf *config.Config) error {
	if err := conf.Validate(); err != nil {
		return err
	}
	repoPath, err := orBestKnownPath(repoPath)
	if err != nil {
		return err
	}

	if IsInitialized(repoPath) {
		return nil
	}

	if err := fsutil.DirWritable(repoPath); err != nil {
		return err
	}

	if conf.Datastore.Type == config.DatastoreFS {
		// The datastores are created lazily when opened. Here we only
		// check the directories are writable.
		for _, p := range []string{conf.Datastore.BlocksPath, conf.Datastore.IndexPath} {
			if err := fsutil.DirWritable(resolvePath(repoPath, p)); err != nil {
				return fmt.Errorf("datastore: %w", err)
			}
		}
	}

	configFilename, err := config.Filename(repoPath, "")
	if err != nil {
		return err
	}
	return serialize.WriteConfigFile(configFilename, conf)
}

// IsInitialized returns true if the repo is initialized at provided |path|.
func IsInitialized(path string) bool {
	configFilename, err := config.Filename(path, "")
	if err != nil {
		return false
	}
	return fsutil.FileExists(configFilename)
}

// Open the FSRepo at path, or at BestKnownPath if path is empty. Returns
// an error if the repo is not initialized or another FSRepo holds it open.
func Open(repoPath string) (*FSRepo, error) {
	repoPath, err := orBestKnownPath(repoPath)
	if err != nil {
		return nil, err
	}
	expPath, err := fsutil.ExpandHome(filepath.Clean(repoPath))
	if err != nil {
		return nil, err
	}

	r := &FSRepo{path: expPath}

	if !IsInitialized(r.path) {
		return nil, ErrNotInitialized
	}

	r.lockfile, err = lockfile.Lock(r.path, LockFile)
	if err != nil {
		return nil, err
	}
	keepLocked := false
	defer func() {
		// unlock on error, leave it locked on success
		if !keepLocked {
			r.lockfile.Close()
		}
	}()

	configFilename, err := config.Filename(r.path, "")
	if err != nil {
		return nil, err
	}
	r.config, err = serialize.Load(configFilename)
	if err != nil {
		return nil, err
	}

	r.ds, err = r.openDatastore()
	if err != nil {
		return nil, err
	}

	log.Debugf("opened repo at %s", r.path)
	keepLocked = true
	return r, nil
}

// Remove recursively removes the FSRepo at |path|.
func Remove(repoPath string) error {
	locked, err := lockfile.Locked(repoPath, LockFile)
	if err != nil {
		return err
	}
	if locked {
		return ErrLocked
	}
	return os.RemoveAll(repoPath)
}

// Path returns the root of the repo.
func (r *FSRepo) Path() string {
	return r.path
}

// Config returns a copy of the repo config.
func (r *FSRepo) Config() (*config.Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, repo.ErrClosed
	}
	return r.config.Clone()
}

// SetConfig writes the config to disk and keeps a private copy.
func (r *FSRepo) SetConfig(updated *config.Config) error {
	if err := updated.Validate(); err != nil {
		return err
	}
	conf, err := updated.Clone()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return repo.ErrClosed
	}
	configFilename, err := config.Filename(r.path, "")
	if err != nil {
		return err
	}
	if err := serialize.WriteConfigFile(configFilename, conf); err != nil {
		return err
	}
	r.config = conf
	return nil
}

// Datastore returns a repo-owned datastore. If FSRepo is Closed, return value
// is undefined.
func (r *FSRepo) Datastore() repo.Datastore {
	r.mu.Lock()
	d := r.ds
	r.mu.Unlock()
	return d
}

// Close closes the FSRepo, releasing held resources.
func (r *FSRepo) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return repo.ErrClosed
	}
	r.closed = true

	return multierr.Combine(r.ds.Close(), r.lockfile.Close())
}

func resolvePath(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
