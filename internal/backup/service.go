// Package backup copies the data store file into a backup folder and keeps
// that folder within a retention window.
package backup

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rogerio-castellano/stationery-tracker/internal/apperr"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/blake2b"
)

// stampLayout is the timestamp embedded in backup file names.
const stampLayout = "2006-01-02_15-04-05"

var stampPattern = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})_(\d{2}-\d{2}-\d{2})`)

type Options struct {
	SourcePath string
	Dir        string
	Prefix     string
	Ext        string // without the leading dot

	// BeforeCopy runs before the source is read, e.g. to checkpoint a WAL.
	BeforeCopy func(ctx context.Context) error
	Now        func() time.Time
}

// Record describes one backup file.
type Record struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	Checksum  string    `json:"checksum,omitempty"`
}

type Service struct {
	opts Options
	now  func() time.Time
}

func NewService(opts Options) *Service {
	if opts.Ext == "" {
		opts.Ext = "db"
	}
	opts.Ext = strings.TrimPrefix(opts.Ext, ".")
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{opts: opts, now: now}
}

func (s *Service) Dir() string { return s.opts.Dir }

// FileName returns the backup name for t: <prefix>_<YYYY-MM-DD>_<HH-MM-SS>.<ext>.
func (s *Service) FileName(t time.Time) string {
	return fmt.Sprintf("%s_%s.%s", s.opts.Prefix, t.Format(stampLayout), s.opts.Ext)
}

// RunBackupNow copies the source file into the backup folder under a
// timestamped name. A partial copy is removed on failure.
func (s *Service) RunBackupNow(ctx context.Context) (Record, error) {
	info, err := os.Stat(s.opts.SourcePath)
	switch {
	case errors.Is(err, fs.ErrNotExist) || s.opts.SourcePath == "":
		return Record{}, apperr.SourceMissing(s.opts.SourcePath)
	case err != nil:
		return Record{}, apperr.Storage(err, "failed to inspect backup source")
	case info.IsDir():
		return Record{}, apperr.Storage(fmt.Errorf("%s is a directory", s.opts.SourcePath), "backup source is not a file")
	}

	if err := os.MkdirAll(s.opts.Dir, 0o755); err != nil {
		return Record{}, apperr.Storage(err, "failed to create backup directory")
	}

	if s.opts.BeforeCopy != nil {
		if err := s.opts.BeforeCopy(ctx); err != nil {
			log.Warn().Err(err).Msg("pre-backup hook failed, copying anyway")
		}
	}

	createdAt := s.now()
	name := s.FileName(createdAt)
	path := filepath.Join(s.opts.Dir, name)

	size, sum, err := copyFile(ctx, s.opts.SourcePath, path)
	if err != nil {
		if !errors.Is(err, fs.ErrExist) {
			_ = os.Remove(path)
		}
		return Record{}, apperr.Storage(err, "failed to write backup %s", name)
	}

	return Record{Name: name, Path: path, Size: size, CreatedAt: createdAt, Checksum: sum}, nil
}

// copyFile copies src to a new file dst and returns the bytes written and their
// BLAKE2b-256 digest. dst must not exist.
func copyFile(ctx context.Context, src, dst string) (int64, string, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, "", err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, "", err
	}

	h, err := blake2b.New256(nil)
	if err != nil {
		out.Close()
		return 0, "", err
	}

	n, err := io.Copy(io.MultiWriter(out, h), ctxReader{ctx: ctx, r: in})
	if err != nil {
		out.Close()
		return 0, "", err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return 0, "", err
	}
	if err := out.Close(); err != nil {
		return 0, "", err
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func (s *Service) isBackup(e fs.DirEntry) bool {
	return e.Type().IsRegular() && strings.HasSuffix(e.Name(), "."+s.opts.Ext)
}

// PruneOlderThan deletes backup files modified more than days*24h ago and
// returns how many were removed. A missing folder has nothing to prune.
func (s *Service) PruneOlderThan(ctx context.Context, days int) (int, error) {
	if days < 0 {
		return 0, apperr.Validation("days must be zero or greater")
	}

	entries, err := os.ReadDir(s.opts.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, apperr.Storage(err, "failed to read backup directory")
	}

	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	deleted := 0
	var errs []error
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		if !s.isBackup(e) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.opts.Dir, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		deleted++
		log.Debug().Str("file", e.Name()).Time("modified", info.ModTime()).Msg("old backup removed")
	}

	if len(errs) > 0 {
		return deleted, apperr.Storage(errors.Join(errs...), "failed to remove %d backup(s)", len(errs))
	}
	return deleted, nil
}

// ListBackups returns the backup files, newest first. The timestamp comes from
// the file name, or from the modification time when the name has none.
func (s *Service) ListBackups(ctx context.Context) ([]Record, error) {
	entries, err := os.ReadDir(s.opts.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, apperr.Storage(err, "failed to read backup directory")
	}

	records := []Record{}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.isBackup(e) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		records = append(records, Record{
			Name:      e.Name(),
			Path:      filepath.Join(s.opts.Dir, e.Name()),
			Size:      info.Size(),
			CreatedAt: stampFromName(e.Name(), info.ModTime()),
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].Name > records[j].Name
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

func stampFromName(name string, fallback time.Time) time.Time {
	m := stampPattern.FindStringSubmatch(name)
	if m == nil {
		return fallback
	}
	t, err := time.ParseInLocation(stampLayout, m[1]+"_"+m[2], time.Local)
	if err != nil {
		return fallback
	}
	return t
}
