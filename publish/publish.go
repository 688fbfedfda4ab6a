// Package publish mirrors the curated output tree to an object store,
// keeping the <Module>/<Type><ext> layout as object keys.
package publish

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/publicrust/DotnetDllParser/errors"
	"github.com/publicrust/DotnetDllParser/logger"
)

// Bucket is the object store side of a publish
type Bucket interface {
	Name() string
	Ensure(ctx context.Context) error
	Upload(ctx context.Context, key, path string) (int64, error)
}

// UploadFailure records one file that could not be uploaded
type UploadFailure struct {
	Key   string `json:"key"`
	Error string `json:"error"`
}

// Result summarises one publish
type Result struct {
	Bucket      string          `json:"bucket"`
	Prefix      string          `json:"prefix,omitempty"`
	Uploaded    int             `json:"uploaded"`
	Bytes       int64           `json:"bytes"`
	Failed      []UploadFailure `json:"failed,omitempty"`
	Interrupted bool            `json:"interrupted"`
	StartTime   time.Time       `json:"start_time"`
	EndTime     time.Time       `json:"end_time"`
}

// Publisher uploads output trees to a bucket
type Publisher struct {
	bucket Bucket
	prefix string
	logger *zap.SugaredLogger
}

// New creates a publisher writing keys under prefix
func New(bucket Bucket, prefix string, log *zap.SugaredLogger) *Publisher {
	if log == nil {
		log = logger.ComponentLogger("publish")
	}
	return &Publisher{bucket: bucket, prefix: strings.Trim(prefix, "/"), logger: log}
}

// Publish uploads every file ending in ext found one level below root
// (root/<Module>/<file>). A failed upload is recorded and the rest
// continue; the context is checked between files.
func (p *Publisher) Publish(ctx context.Context, root, ext string) (*Result, error) {
	res := &Result{Bucket: p.bucket.Name(), Prefix: p.prefix, StartTime: time.Now()}

	files, err := collect(root, ext)
	if err != nil {
		return res, err
	}
	if err := p.bucket.Ensure(ctx); err != nil {
		return res, err
	}

	p.logger.Infow("Publishing", logger.FieldCount, len(files), "bucket", res.Bucket, "prefix", p.prefix)

	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			res.Interrupted = true
			res.EndTime = time.Now()
			return res, err
		}

		key := ObjectKey(p.prefix, rel)
		n, err := p.bucket.Upload(ctx, key, filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			res.Failed = append(res.Failed, UploadFailure{Key: key, Error: err.Error()})
			p.logger.Warnw("Upload failed", "key", key, logger.FieldError, err)
			continue
		}
		res.Uploaded++
		res.Bytes += n
	}

	res.EndTime = time.Now()
	p.logger.Infow("Publish completed",
		"uploaded", res.Uploaded,
		logger.FieldFailed, len(res.Failed),
		logger.FieldDurationMS, res.EndTime.Sub(res.StartTime).Milliseconds())
	return res, nil
}

// ObjectKey joins prefix and a slash-separated relative path
func ObjectKey(prefix, rel string) string {
	rel = strings.TrimLeft(rel, "/")
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return rel
	}
	return path.Join(prefix, rel)
}

// collect returns "<module>/<file>" paths for files ending in ext, sorted
func collect(root, ext string) ([]string, error) {
	modules, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WithHint(
				errors.NewNotFoundError("output directory %s does not exist", root),
				"run dllparser decompile first")
		}
		return nil, errors.Wrapf(err, "failed to read %s", root)
	}

	var files []string
	for _, m := range modules {
		if !m.IsDir() {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(root, m.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read module directory %s", m.Name())
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
				continue
			}
			files = append(files, m.Name()+"/"+e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
