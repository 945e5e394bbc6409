package transfer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Local copies files into a mounted share directory.
type Local struct {
	Root string
	log  *slog.Logger
}

// NewLocal returns a transferer writing under root.
func NewLocal(root string, logger *slog.Logger) *Local {
	return &Local{Root: root, log: logger.With("component", "transfer", "backend", "local")}
}

// Transfer copies local to Root/remoteRel. An existing destination with the
// same size is treated as already delivered; any other existing file is
// replaced.
func (l *Local) Transfer(ctx context.Context, local, remoteRel string) error {
	info, err := checkSource(local)
	if err != nil {
		return err
	}
	rel, err := cleanRemote(remoteRel)
	if err != nil {
		return err
	}
	dst := filepath.Join(l.Root, filepath.FromSlash(rel))

	if existing, err := os.Stat(dst); err == nil && existing.Size() == info.Size() {
		l.log.Info("destination already present", "path", dst, "size", info.Size())
		return nil
	}

	size, err := copyFile(ctx, local, dst)
	if err != nil {
		return err
	}
	l.log.Info("copied", "path", local, "destination", dst, "size", size)
	return nil
}

// copyFile copies src to dst through a temporary sibling so dst is never
// left half written. The copy stops when ctx is cancelled.
func copyFile(ctx context.Context, src, dst string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return 0, fmt.Errorf("%w: create directory: %v", ErrTransferFailed, err)
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("%w: open source: %v", ErrTransferFailed, err)
	}
	defer func() { _ = srcFile.Close() }()

	tmp := dst + ".partial"
	dstFile, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("%w: create destination: %v", ErrTransferFailed, err)
	}

	size, err := io.Copy(dstFile, &ctxReader{ctx: ctx, r: srcFile})
	if err == nil {
		err = dstFile.Sync()
	}
	if cerr := dstFile.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, dst)
	}
	if err != nil {
		_ = os.Remove(tmp)
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("%w: copy content: %v", ErrTransferFailed, err)
	}
	return size, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
