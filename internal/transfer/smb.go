package transfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path"
	"strings"
	"time"

	"github.com/Hellseher/go-shellquote"
)

// SMBClient uploads files with the smbclient command line tool.
type SMBClient struct {
	Path     string // smbclient binary
	Server   string
	Share    string
	Username string
	Password string
	Domain   string
	TempDir  string // where the credentials file is written
	log      *slog.Logger
}

// SMBOptions configures an SMBClient.
type SMBOptions struct {
	Path     string
	Server   string
	Share    string
	Username string
	Password string
	Domain   string
	TempDir  string
}

// NewSMBClient returns an SMB transferer.
func NewSMBClient(opts SMBOptions, logger *slog.Logger) *SMBClient {
	if opts.Path == "" {
		opts.Path = "smbclient"
	}
	return &SMBClient{
		Path:     opts.Path,
		Server:   opts.Server,
		Share:    opts.Share,
		Username: opts.Username,
		Password: opts.Password,
		Domain:   opts.Domain,
		TempDir:  opts.TempDir,
		log:      logger.With("component", "transfer", "backend", "smb"),
	}
}

func (s *SMBClient) service() string {
	return fmt.Sprintf("//%s/%s", s.Server, s.Share)
}

// MkdirCommands returns one mkdir command per directory level of dir.
func MkdirCommands(dir string) []string {
	if dir == "" || dir == "." {
		return nil
	}
	var cmds []string
	current := ""
	for _, part := range strings.Split(dir, "/") {
		if part == "" {
			continue
		}
		current = path.Join(current, part)
		cmds = append(cmds, fmt.Sprintf(`mkdir "%s"`, current))
	}
	return cmds
}

// Transfer creates the destination directories one level at a time and
// then puts the file. Directory creation failures are ignored since the
// directory usually exists already.
func (s *SMBClient) Transfer(ctx context.Context, local, remoteRel string) error {
	if _, err := checkSource(local); err != nil {
		return err
	}
	rel, err := cleanRemote(remoteRel)
	if err != nil {
		return err
	}

	creds, err := s.writeCredentials()
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(creds) }()

	for _, mkdir := range MkdirCommands(path.Dir(rel)) {
		if err := s.run(ctx, creds, mkdir); err != nil {
			if ctx.Err() != nil || errors.Is(err, ErrToolNotFound) {
				return err
			}
			s.log.Debug("mkdir failed", "command", mkdir, "error", err)
		}
	}

	start := time.Now()
	if err := s.run(ctx, creds, fmt.Sprintf(`put "%s" "%s"`, local, rel)); err != nil {
		return fmt.Errorf("%s: %w", rel, err)
	}
	s.log.Info("uploaded", "path", local, "destination", s.service()+"/"+rel, "duration", time.Since(start))
	return nil
}

func (s *SMBClient) writeCredentials() (string, error) {
	f, err := os.CreateTemp(s.TempDir, "smb-*.creds")
	if err != nil {
		return "", fmt.Errorf("%w: create credentials file: %v", ErrTransferFailed, err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "username=%s\npassword=%s\n", s.Username, s.Password)
	if s.Domain != "" {
		fmt.Fprintf(&b, "domain=%s\n", s.Domain)
	}
	_, err = f.WriteString(b.String())
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("%w: write credentials file: %v", ErrTransferFailed, err)
	}
	return f.Name(), nil
}

func (s *SMBClient) run(ctx context.Context, creds, command string) error {
	args := []string{s.service(), "-A", creds, "-c", command}
	s.log.Debug("running smbclient", "command", shellquote.Join(append([]string{s.Path}, args...)...))

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, s.Path, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	switch {
	case err == nil:
		return nil
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ErrTimeout
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, exec.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrToolNotFound, s.Path)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%w: smbclient exit %d: %s", ErrTransferFailed, exitErr.ExitCode(), strings.TrimSpace(out.String()))
	}
	return fmt.Errorf("%w: %v", ErrTransferFailed, err)
}
