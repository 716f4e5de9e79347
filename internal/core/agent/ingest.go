package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/neilberkman/lectern/internal/core/errs"
	"github.com/neilberkman/lectern/internal/core/extract"
	"github.com/neilberkman/lectern/internal/core/models"
	"github.com/neilberkman/lectern/internal/core/transcribe"
)

// Metadata keys recorded on ingested sessions
const (
	MetaSourceFile = "source_file"
	MetaSourceType = "source_type"
	MetaASRMode    = "asr_mode"
	MetaPages      = "pages"
	MetaLanguage   = "language"
)

// Supported reports whether path can be ingested
func Supported(path string) bool {
	return extract.IsDocument(path) || transcribe.IsMedia(path)
}

// Ingest routes a file to ProcessDocument or ProcessMedia by extension.
// Unrecognised extensions are tried as media.
func (a *Agent) Ingest(ctx context.Context, classID, path, title, language string, autoSummarize bool) (*AddResult, error) {
	if extract.IsDocument(path) {
		return a.ProcessDocument(ctx, classID, path, title, autoSummarize)
	}
	return a.ProcessMedia(ctx, classID, path, title, language, autoSummarize)
}

// ProcessMedia transcribes an audio or video lecture and stores it as a
// session. An empty language falls back to the configured one.
func (a *Agent) ProcessMedia(ctx context.Context, classID, path, title, language string, autoSummarize bool) (*AddResult, error) {
	if a.media == nil {
		return nil, errs.E(errs.Config, "process media", errors.New("speech-to-text is not configured"), classID)
	}
	if err := a.requireClass(classID); err != nil {
		return nil, err
	}

	mode := a.settings.Snapshot().ASRMode()
	if language == "" {
		language = a.language
	}
	text, err := a.media.Transcribe(ctx, path, mode, language)
	if err != nil {
		return nil, classify(err, errs.Upstream, "transcribe", classID)
	}

	sourceType := "audio"
	if !transcribe.IsAudio(path) {
		sourceType = "video"
	}
	meta := models.Metadata{
		MetaSourceType: sourceType,
		MetaASRMode:    mode,
	}
	if language != "" {
		meta[MetaLanguage] = language
	}
	return a.store(ctx, classID, path, title, text, meta, autoSummarize)
}

// ProcessDocument extracts the text of a PDF, DOCX, text or markdown file
// and stores it as a session
func (a *Agent) ProcessDocument(ctx context.Context, classID, path, title string, autoSummarize bool) (*AddResult, error) {
	if err := a.requireClass(classID); err != nil {
		return nil, err
	}

	doc, err := extract.File(path)
	if err != nil {
		return nil, classify(err, errs.Upstream, "extract", classID)
	}

	meta := models.Metadata{MetaSourceType: doc.Type}
	if doc.Pages > 0 {
		meta[MetaPages] = strconv.Itoa(doc.Pages)
	}
	return a.store(ctx, classID, path, title, doc.Text, meta, autoSummarize)
}

func (a *Agent) requireClass(classID string) error {
	class, err := a.db.GetClass(classID)
	if err != nil {
		return err
	}
	if class == nil {
		return errs.E(errs.NotFound, "ingest", errs.ErrClassNotFound, classID)
	}
	return nil
}

func (a *Agent) store(ctx context.Context, classID, path, title, text string, meta models.Metadata, autoSummarize bool) (*AddResult, error) {
	if strings.TrimSpace(title) == "" {
		title = extract.TitleFromFilename(path)
	}

	archived, err := a.archive(classID, path)
	if err != nil {
		log.Printf("[agent] could not archive %s: %v", filepath.Base(path), err)
		meta[MetaSourceFile] = filepath.Base(path)
	} else {
		meta[MetaSourceFile] = archived
	}

	res, err := a.AddSession(ctx, classID, title, text, meta, autoSummarize)
	if res == nil && archived != "" {
		os.Remove(filepath.Join(a.db.ClassDir(classID), archived))
	}
	return res, err
}

// archive copies the source file into the class directory and returns the
// stored file name
func (a *Agent) archive(classID, path string) (string, error) {
	dir := a.db.ClassDir(classID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create class dir: %w", err)
	}

	name := filepath.Base(path)
	dest := filepath.Join(dir, name)
	if _, err := os.Stat(dest); err == nil {
		ext := filepath.Ext(name)
		name = strings.TrimSuffix(name, ext) + "-" + uuid.NewString()[:8] + ext
		dest = filepath.Join(dir, name)
	}

	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dest)
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", err
	}
	return name, nil
}

// classify tags err with classID, using kind when err carries no
// classification of its own
func classify(err error, kind errs.Kind, op, classID string) error {
	var e *errs.Error
	if errors.As(err, &e) {
		if e.ClassID == "" {
			e.ClassID = classID
		}
		return err
	}
	return errs.E(kind, op, err, classID)
}
