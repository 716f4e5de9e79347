// Package importer bulk-loads a directory of lecture files into a class.
package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/neilberkman/lectern/internal/core/agent"
	"github.com/neilberkman/lectern/internal/core/db"
)

// Status is the outcome for one file
type Status string

const (
	StatusImported Status = "imported"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

// Ingester turns one file into a stored session
type Ingester interface {
	Ingest(ctx context.Context, classID, path, title, language string, autoSummarize bool) (*agent.AddResult, error)
}

// Result totals one directory import
type Result struct {
	Imported int
	Skipped  int
	Failed   int
	// Errors maps file path to its failure
	Errors map[string]error
}

// Importer handles importing lecture files into the database
type Importer struct {
	db            *db.DB
	ingest        Ingester
	autoSummarize bool
}

// New creates a new importer
func New(database *db.DB, ingest Ingester, autoSummarize bool) *Importer {
	return &Importer{db: database, ingest: ingest, autoSummarize: autoSummarize}
}

// ImportFile ingests one file unless an identical file was already imported
// into the class. The attempt is recorded in the import log.
func (i *Importer) ImportFile(ctx context.Context, classID, path string) (Status, error) {
	hash, err := computeFileHash(path)
	if err != nil {
		return StatusFailed, fmt.Errorf("failed to hash file: %w", err)
	}

	done, err := i.db.HasImported(classID, hash)
	if err != nil {
		return StatusFailed, err
	}
	if done {
		return StatusSkipped, nil
	}

	res, ingestErr := i.ingest.Ingest(ctx, classID, path, "", "", i.autoSummarize)

	// a stored session counts as imported even if summarizing failed
	sessionID := ""
	logErr := ingestErr
	if res != nil && res.Session != nil {
		sessionID = res.Session.SessionID
		logErr = nil
	}
	if err := i.db.RecordImport(classID, path, hash, sessionID, logErr); err != nil {
		log.Printf("[import] %v", err)
	}

	if sessionID == "" {
		return StatusFailed, ingestErr
	}
	if ingestErr != nil {
		log.Printf("[import] %s stored as %s but: %v", filepath.Base(path), sessionID, ingestErr)
	}
	return StatusImported, nil
}

// ImportDirectory imports every supported file under dirPath in name order
func (i *Importer) ImportDirectory(ctx context.Context, classID, dirPath string, progress ProgressCallback) (*Result, error) {
	files, err := LectureFiles(dirPath)
	if err != nil {
		return nil, err
	}

	res := &Result{Errors: make(map[string]error)}
	if progress != nil {
		progress.Start(len(files))
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		status, err := i.ImportFile(ctx, classID, file)
		switch status {
		case StatusImported:
			res.Imported++
		case StatusSkipped:
			res.Skipped++
		default:
			res.Failed++
			res.Errors[file] = err
		}
		if progress != nil {
			progress.Update(file, status)
		}
	}

	if progress != nil {
		progress.Finish(res)
	}
	return res, nil
}

// LectureFiles lists the supported files under dir, skipping hidden entries
func LectureFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		hidden := strings.HasPrefix(info.Name(), ".") && path != dir
		if info.IsDir() {
			if hidden {
				return filepath.SkipDir
			}
			return nil
		}
		if !hidden && agent.Supported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

func computeFileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = file.Close()
	}()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}
