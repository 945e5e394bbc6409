// Package transfer delivers processed files to the media share.
package transfer

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
)

// Transferer copies a local file to a path relative to the share root.
// remoteRel always uses forward slashes.
type Transferer interface {
	Transfer(ctx context.Context, local, remoteRel string) error
}

func checkSource(local string) (os.FileInfo, error) {
	info, err := os.Stat(local)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceMissing, local)
		}
		return nil, fmt.Errorf("%w: stat source: %v", ErrTransferFailed, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrSourceMissing, local)
	}
	return info, nil
}

// cleanRemote validates remoteRel and returns it in canonical form.
func cleanRemote(remoteRel string) (string, error) {
	if remoteRel == "" || strings.ContainsAny(remoteRel, "\"\x00") {
		return "", fmt.Errorf("%w: %q", ErrInvalidRemotePath, remoteRel)
	}
	p := path.Clean(strings.TrimPrefix(remoteRel, "/"))
	if p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidRemotePath, remoteRel)
	}
	return p, nil
}
