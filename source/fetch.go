package source

// Remote module sources.
// Uses hashicorp/go-getter so source.url can be any of:
//   - Local paths: /opt/rust/RustDedicated_Data/Managed
//   - Archives: https://example.com/managed.zip (auto-extracted)
//   - Buckets: s3::https://s3.amazonaws.com/bucket/managed
//   - Git: git::https://example.com/server-dlls.git

import (
	"context"
	"net/url"
	"os"

	"github.com/hashicorp/go-getter"
	"go.uber.org/zap"

	"github.com/publicrust/DotnetDllParser/errors"
)

// Fetch materialises src into the directory dst so Discover can scan it.
func Fetch(ctx context.Context, src, dst string, log *zap.SugaredLogger) error {
	pwd, err := os.Getwd()
	if err != nil {
		pwd = "."
	}

	detected, err := getter.Detect(src, pwd, getter.Detectors)
	if err != nil {
		return errors.Wrapf(err, "failed to detect source type of %s", src)
	}
	log.Debugw("go-getter detected source", "input", src, "detected", detected)

	client := &getter.Client{
		Ctx:     ctx,
		Src:     detected,
		Dst:     dst,
		Pwd:     pwd,
		Mode:    getter.ClientModeDir,
		Getters: getter.Getters,
	}

	log.Infow("Fetching modules", "source", src, "destination", dst)
	if err := client.Get(); err != nil {
		return errors.Wrapf(err, "failed to fetch %s", src)
	}
	log.Infow("Fetch completed", "destination", dst)
	return nil
}

// IsRemote reports whether src names something other than a local path
func IsRemote(src string) bool {
	pwd, err := os.Getwd()
	if err != nil {
		pwd = "."
	}

	detected, err := getter.Detect(src, pwd, getter.Detectors)
	if err != nil {
		return false
	}
	parsed, err := url.Parse(detected)
	if err != nil {
		return false
	}
	return parsed.Scheme != "" && parsed.Scheme != "file"
}
