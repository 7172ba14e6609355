package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"

	"github.com/pratik-mahalle/opsguard/internal/config"
	"github.com/pratik-mahalle/opsguard/internal/domain/backup"
	"github.com/pratik-mahalle/opsguard/internal/domain/syslog"
	"github.com/pratik-mahalle/opsguard/internal/pkg/errors"
	"github.com/pratik-mahalle/opsguard/internal/pkg/logger"
	"github.com/pratik-mahalle/opsguard/internal/pkg/metrics"
)

const (
	lockFileName     = ".backup.lock"
	lockWait         = 5 * time.Minute
	lockRetry        = 500 * time.Millisecond
	compressionLevel = 6
)

// BackupService implements backup.Service
type BackupService struct {
	cfg      config.BackupConfig
	engine   dbEngine
	logs     syslog.Service
	uploader backup.Uploader
	logger   *logger.Logger
	now      func() time.Time

	root     string
	dbDir    string
	filesDir string
	fullDir  string
}

// NewBackupService creates the backup directory layout; logs and uploader may be nil
func NewBackupService(cfg config.BackupConfig, logs syslog.Service, uploader backup.Uploader, log *logger.Logger) (*BackupService, error) {
	return newBackupService(cfg, logs, uploader, execRunner, log)
}

func newBackupService(cfg config.BackupConfig, logs syslog.Service, uploader backup.Uploader, run commandRunner, log *logger.Logger) (*BackupService, error) {
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 30
	}
	if cfg.DumpTimeout <= 0 {
		cfg.DumpTimeout = 30 * time.Minute
	}

	engine, err := newEngine(cfg, run)
	if err != nil {
		return nil, err
	}

	s := &BackupService{
		cfg:      cfg,
		engine:   engine,
		logs:     logs,
		uploader: uploader,
		logger:   log.WithComponent("backup_manager"),
		now:      time.Now,
		root:     cfg.Dir,
		dbDir:    filepath.Join(cfg.Dir, string(backup.TypeDatabase)),
		filesDir: filepath.Join(cfg.Dir, string(backup.TypeFiles)),
		fullDir:  filepath.Join(cfg.Dir, string(backup.TypeFull)),
	}

	for _, dir := range []string{s.dbDir, s.filesDir, s.fullDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create backup directory %s: %w", dir, err)
		}
	}
	return s, nil
}

// SetLiveStore hands the application's own sqlite pool to the engine so a restore can drop
// connections that still point at the replaced file. Other engines ignore it.
func (s *BackupService) SetLiveStore(db *sql.DB) {
	if e, ok := s.engine.(*sqliteEngine); ok {
		e.live = db
	}
}

// withLock serializes backup mutations across processes
func (s *BackupService) withLock(ctx context.Context, fn func() error) error {
	lock := flock.New(filepath.Join(s.root, lockFileName))
	lockCtx, cancel := context.WithTimeout(ctx, lockWait)
	defer cancel()

	locked, err := lock.TryLockContext(lockCtx, lockRetry)
	if err != nil {
		return fmt.Errorf("failed to acquire backup lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("backup lock is held by another process")
	}
	defer lock.Unlock()

	return fn()
}

// CreateDatabaseBackup dumps the database into database/<name>.sql.gz
func (s *BackupService) CreateDatabaseBackup(ctx context.Context, name string) bool {
	if name == "" {
		name = backup.DefaultName(backup.TypeDatabase, s.now())
	}
	err := s.withLock(ctx, func() error {
		return s.createDatabaseBackup(ctx, name)
	})
	return s.report(backup.TypeDatabase, name, err)
}

// CreateFilesBackup archives the configured directories into files/<name>.zip
func (s *BackupService) CreateFilesBackup(ctx context.Context, name string) bool {
	if name == "" {
		name = backup.DefaultName(backup.TypeFiles, s.now())
	}
	err := s.withLock(ctx, func() error {
		return s.createFilesBackup(ctx, name)
	})
	return s.report(backup.TypeFiles, name, err)
}

// CreateFullBackup creates both components and a manifest; it fails if either component fails
func (s *BackupService) CreateFullBackup(ctx context.Context, name string) bool {
	if name == "" {
		name = backup.DefaultName(backup.TypeFull, s.now())
	}
	err := s.withLock(ctx, func() error {
		if err := validateBackupName(name); err != nil {
			return err
		}
		err := ensureAbsent(
			filepath.Join(s.fullDir, name+backup.ExtManifest),
			filepath.Join(s.dbDir, name+backup.FullDBSuffix+backup.ExtDatabase),
			filepath.Join(s.filesDir, name+backup.FullFilesSuffix+backup.ExtFiles),
		)
		if err != nil {
			return err
		}
		dbErr := s.createDatabaseBackup(ctx, name+backup.FullDBSuffix)
		s.report(backup.TypeDatabase, name+backup.FullDBSuffix, dbErr)
		filesErr := s.createFilesBackup(ctx, name+backup.FullFilesSuffix)
		s.report(backup.TypeFiles, name+backup.FullFilesSuffix, filesErr)
		if dbErr != nil || filesErr != nil {
			return fmt.Errorf("database or files backup failed")
		}
		return s.writeManifest(ctx, name)
	})
	return s.report(backup.TypeFull, name, err)
}

// report logs and counts the outcome of a creation
func (s *BackupService) report(bt backup.Type, name string, err error) bool {
	if err != nil {
		metrics.RecordBackup(string(bt), false, 0)
		s.logger.WithFields(map[string]interface{}{
			"type": bt,
			"name": name,
		}).ErrorWithErr(err, "Backup failed")
		return false
	}
	return true
}

func (s *BackupService) createDatabaseBackup(ctx context.Context, name string) error {
	if err := validateBackupName(name); err != nil {
		return err
	}
	target := filepath.Join(s.dbDir, name+backup.ExtDatabase)

	dumpCtx, cancel := context.WithTimeout(ctx, s.cfg.DumpTimeout)
	defer cancel()

	err := writeAtomically(target, func(w io.Writer) error {
		gz, err := gzip.NewWriterLevel(w, compressionLevel)
		if err != nil {
			return err
		}
		if err := s.engine.Dump(dumpCtx, gz); err != nil {
			gz.Close()
			return err
		}
		return gz.Close()
	})
	if err != nil {
		return err
	}

	s.created(ctx, backup.TypeDatabase, target)
	return nil
}

func (s *BackupService) createFilesBackup(ctx context.Context, name string) error {
	if err := validateBackupName(name); err != nil {
		return err
	}
	target := filepath.Join(s.filesDir, name+backup.ExtFiles)

	err := writeAtomically(target, func(w io.Writer) error {
		zw := zip.NewWriter(w)
		for _, dir := range s.cfg.Directories {
			if err := addDirToZip(ctx, zw, dir); err != nil {
				zw.Close()
				return err
			}
		}
		return zw.Close()
	})
	if err != nil {
		return err
	}

	s.created(ctx, backup.TypeFiles, target)
	return nil
}

func (s *BackupService) writeManifest(ctx context.Context, name string) error {
	manifest := backup.Manifest{
		Name:           name,
		Timestamp:      s.now(),
		Type:           backup.TypeFull,
		DatabaseBackup: name + backup.FullDBSuffix + backup.ExtDatabase,
		FilesBackup:    name + backup.FullFilesSuffix + backup.ExtFiles,
		AppVersion:     s.cfg.AppVersion,
		GoVersion:      runtime.Version(),
		Engine:         s.engine.Name(),
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}

	target := filepath.Join(s.fullDir, name+backup.ExtManifest)
	err = writeAtomically(target, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if err != nil {
		return err
	}

	s.created(ctx, backup.TypeFull, target)
	return nil
}

// created audits a new artifact and copies it offsite
func (s *BackupService) created(ctx context.Context, bt backup.Type, path string) {
	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	metrics.RecordBackup(string(bt), true, size)

	file := filepath.Base(path)
	s.logger.WithFields(map[string]interface{}{
		"type": bt,
		"file": file,
		"size": humanize.Bytes(uint64(size)),
	}).Info("Backup created")

	if s.logs != nil {
		entry := &syslog.Entry{
			Level:      syslog.LevelInfo,
			LoggerName: "backup_manager",
			Message:    fmt.Sprintf("Backup created: %s - %s", bt, file),
			ExtraData: map[string]interface{}{
				"backup_type": string(bt),
				"backup_file": path,
				"file_size":   size,
				"timestamp":   s.now().Format(time.RFC3339),
			},
		}
		if err := s.logs.RecordEvent(ctx, entry); err != nil {
			s.logger.ErrorWithErr(err, "Failed to log backup")
		}
	}

	if s.uploader != nil {
		f, err := os.Open(path)
		if err != nil {
			s.logger.ErrorWithErr(err, "Failed to open backup for upload")
			return
		}
		defer f.Close()
		if err := s.uploader.Upload(ctx, string(bt)+"/"+file, f); err != nil {
			s.logger.With("file", file).ErrorWithErr(err, "Failed to upload backup offsite")
		}
	}
}

// RestoreDatabaseBackup restores database/<reference>, accepting a file name or a backup name
func (s *BackupService) RestoreDatabaseBackup(ctx context.Context, reference string) error {
	name := strings.TrimSuffix(reference, backup.ExtDatabase)
	if err := validateBackupName(name); err != nil {
		return err
	}
	path := filepath.Join(s.dbDir, name+backup.ExtDatabase)
	if _, err := os.Stat(path); err != nil {
		return errors.NotFound("Backup")
	}

	return s.withLock(ctx, func() error {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to read backup %s: %w", name, err)
		}
		defer gz.Close()

		restoreCtx, cancel := context.WithTimeout(ctx, s.cfg.DumpTimeout)
		defer cancel()

		if err := s.engine.Restore(restoreCtx, gz, s.now().Format(backup.NameTimeLayout)); err != nil {
			s.logger.With("backup", name).ErrorWithErr(err, "Database restore failed")
			return err
		}

		s.logger.With("backup", name).Info("Database restored")
		if s.logs != nil {
			s.logs.RecordEvent(ctx, &syslog.Entry{
				Level:      syslog.LevelWarning,
				LoggerName: "backup_manager",
				Message:    fmt.Sprintf("Database restored from %s", filepath.Base(path)),
			})
		}
		return nil
	})
}

// GetBackupList lists backups of a type, or of every type for TypeAll, newest first
func (s *BackupService) GetBackupList(ctx context.Context, t backup.Type) ([]*backup.Record, error) {
	if t == "" {
		t = backup.TypeAll
	}
	if t != backup.TypeAll && !t.IsValid() {
		return nil, errors.BadRequest(fmt.Sprintf("invalid backup type: %s", t))
	}

	var records []*backup.Record
	if t == backup.TypeAll || t == backup.TypeDatabase {
		recs, err := s.listArtifacts(s.dbDir, backup.TypeDatabase, backup.ExtDatabase)
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}
	if t == backup.TypeAll || t == backup.TypeFiles {
		recs, err := s.listArtifacts(s.filesDir, backup.TypeFiles, backup.ExtFiles)
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}
	if t == backup.TypeAll || t == backup.TypeFull {
		recs, err := s.listFull()
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

func (s *BackupService) listArtifacts(dir string, bt backup.Type, ext string) ([]*backup.Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var records []*backup.Record
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		records = append(records, &backup.Record{
			Name:           strings.TrimSuffix(e.Name(), ext),
			Type:           bt,
			FileReference:  e.Name(),
			SizeBytes:      info.Size(),
			CreatedAt:      info.ModTime(),
			EngineMetadata: map[string]string{"engine": s.engine.Name()},
		})
	}
	return records, nil
}

func (s *BackupService) listFull() ([]*backup.Record, error) {
	entries, err := os.ReadDir(s.fullDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.fullDir, err)
	}

	var records []*backup.Record
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), backup.ExtManifest) {
			continue
		}
		manifest, info, err := s.readManifest(filepath.Join(s.fullDir, e.Name()))
		if err != nil {
			s.logger.With("file", e.Name()).WarnWithErr(err, "Skipping unreadable backup manifest")
			continue
		}

		size := info.Size()
		for _, part := range []string{
			filepath.Join(s.dbDir, manifest.DatabaseBackup),
			filepath.Join(s.filesDir, manifest.FilesBackup),
		} {
			if pi, err := os.Stat(part); err == nil {
				size += pi.Size()
			}
		}

		records = append(records, &backup.Record{
			Name:          manifest.Name,
			Type:          backup.TypeFull,
			FileReference: e.Name(),
			SizeBytes:     size,
			CreatedAt:     manifest.Timestamp,
			EngineMetadata: map[string]string{
				"engine":          manifest.Engine,
				"database_backup": manifest.DatabaseBackup,
				"files_backup":    manifest.FilesBackup,
				"app_version":     manifest.AppVersion,
				"go_version":      manifest.GoVersion,
			},
		})
	}
	return records, nil
}

func (s *BackupService) readManifest(path string) (*backup.Manifest, fs.FileInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, err
	}
	var m backup.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, nil, err
	}
	return &m, info, nil
}

// artifactPath returns the primary file of a backup
func (s *BackupService) artifactPath(name string, t backup.Type) (string, error) {
	if err := validateBackupName(name); err != nil {
		return "", err
	}
	switch t {
	case backup.TypeDatabase:
		return filepath.Join(s.dbDir, name+backup.ExtDatabase), nil
	case backup.TypeFiles:
		return filepath.Join(s.filesDir, name+backup.ExtFiles), nil
	case backup.TypeFull:
		return filepath.Join(s.fullDir, name+backup.ExtManifest), nil
	default:
		return "", errors.BadRequest(fmt.Sprintf("invalid backup type: %s", t))
	}
}

// OpenBackup opens the primary artifact of a backup; the caller closes it
func (s *BackupService) OpenBackup(ctx context.Context, name string, t backup.Type) (io.ReadCloser, *backup.Record, error) {
	path, err := s.artifactPath(name, t)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.NotFound("Backup")
		}
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, &backup.Record{
		Name:          name,
		Type:          t,
		FileReference: filepath.Base(path),
		SizeBytes:     info.Size(),
		CreatedAt:     info.ModTime(),
	}, nil
}

// DeleteBackup removes a backup; full backups cascade to their components
func (s *BackupService) DeleteBackup(ctx context.Context, name string, t backup.Type) error {
	if _, err := s.artifactPath(name, t); err != nil {
		return err
	}
	return s.withLock(ctx, func() error {
		return s.deleteBackup(ctx, name, t)
	})
}

func (s *BackupService) deleteBackup(ctx context.Context, name string, t backup.Type) error {
	type part struct {
		bt   backup.Type
		path string
	}

	var parts []part
	switch t {
	case backup.TypeDatabase:
		parts = []part{{backup.TypeDatabase, filepath.Join(s.dbDir, name+backup.ExtDatabase)}}
	case backup.TypeFiles:
		parts = []part{{backup.TypeFiles, filepath.Join(s.filesDir, name+backup.ExtFiles)}}
	case backup.TypeFull:
		parts = []part{
			{backup.TypeFull, filepath.Join(s.fullDir, name+backup.ExtManifest)},
			{backup.TypeDatabase, filepath.Join(s.dbDir, name+backup.FullDBSuffix+backup.ExtDatabase)},
			{backup.TypeFiles, filepath.Join(s.filesDir, name+backup.FullFilesSuffix+backup.ExtFiles)},
		}
	}

	removed := 0
	for _, p := range parts {
		err := os.Remove(p.path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to delete %s: %w", filepath.Base(p.path), err)
		}
		removed++
		if s.uploader != nil {
			if err := s.uploader.Delete(ctx, string(p.bt)+"/"+filepath.Base(p.path)); err != nil {
				s.logger.With("file", filepath.Base(p.path)).WarnWithErr(err, "Failed to delete offsite copy")
			}
		}
	}

	if removed == 0 {
		return errors.NotFound("Backup")
	}
	s.logger.WithFields(map[string]interface{}{
		"type": t,
		"name": name,
	}).Info("Backup deleted")
	return nil
}

// CleanupOldBackups deletes backups whose files are older than the retention window
func (s *BackupService) CleanupOldBackups(ctx context.Context) (int, error) {
	cutoff := s.now().AddDate(0, 0, -s.cfg.RetentionDays)
	deleted := 0

	err := s.withLock(ctx, func() error {
		for _, c := range []struct {
			dir string
			bt  backup.Type
			ext string
		}{
			{s.dbDir, backup.TypeDatabase, backup.ExtDatabase},
			{s.filesDir, backup.TypeFiles, backup.ExtFiles},
			{s.fullDir, backup.TypeFull, backup.ExtManifest},
		} {
			entries, err := os.ReadDir(c.dir)
			if err != nil {
				return err
			}
			for _, e := range entries {
				if e.IsDir() || !strings.HasSuffix(e.Name(), c.ext) {
					continue
				}
				info, err := e.Info()
				if err != nil || !info.ModTime().Before(cutoff) {
					continue
				}
				name := strings.TrimSuffix(e.Name(), c.ext)
				if err := s.deleteBackup(ctx, name, c.bt); err != nil {
					if errors.IsNotFound(err) {
						continue
					}
					return err
				}
				deleted++
			}
		}
		return nil
	})
	if err != nil {
		s.logger.ErrorWithErr(err, "Backup cleanup failed")
		return deleted, err
	}

	s.logger.With("deleted", deleted).Info("Cleaned up old backups")
	return deleted, nil
}

// validateBackupName keeps names inside their category directory
func validateBackupName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return errors.BadRequest(fmt.Sprintf("invalid backup name: %q", name))
	}
	return nil
}

// writeAtomically writes to a temp file in the target directory and links it into place.
// An existing target is never replaced.
func writeAtomically(target string, write func(w io.Writer) error) error {
	if err := ensureAbsent(target); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Link(tmp.Name(), target); err != nil {
		if os.IsExist(err) {
			return backupExists(target)
		}
		return err
	}
	return nil
}

func ensureAbsent(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Lstat(p); err == nil {
			return backupExists(p)
		} else if !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func backupExists(path string) error {
	return errors.Conflict(fmt.Sprintf("backup %s already exists", filepath.Base(path)))
}

// addDirToZip adds every regular file under dir; a missing dir is skipped
func addDirToZip(ctx context.Context, zw *zip.Writer, dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		base := filepath.Clean(dir)
		if filepath.IsAbs(base) {
			base = filepath.Base(base)
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(filepath.Join(base, rel))
		header.Method = zip.Deflate

		w, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	})
}
