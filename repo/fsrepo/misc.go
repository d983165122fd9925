package fsrepo

import (
	"os"

	config "github.com/ipfs/go-ipfs-lite/config"
	"github.com/ipfs/go-ipfs-lite/misc/fsutil"
)

// BestKnownPath returns the best known fsrepo path. If the ENV override is
// present, this function returns that value. Otherwise, it returns the default
// repo path.
func BestKnownPath() (string, error) {
	ipfsPath := config.DefaultPathRoot
	if os.Getenv(config.EnvDir) != "" {
		ipfsPath = os.Getenv(config.EnvDir)
	}
	return fsutil.ExpandHome(ipfsPath)
}

// orBestKnownPath returns repoPath, or BestKnownPath when it is empty.
func orBestKnownPath(repoPath string) (string, error) {
	if repoPath != "" {
		return repoPath, nil
	}
	return BestKnownPath()
}
