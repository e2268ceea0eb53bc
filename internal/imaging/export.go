package imaging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fjyeo/Open-Photo-Lab/internal/debug"
)

// ExportImages copies every file in paths into the destination directory.
// Existing files are never overwritten; a _copyN suffix is added instead.
// The first failure stops the export and is returned.
func (s *Service) ExportImages(ctx context.Context, destination string, paths []string) error {
	info, err := os.Stat(destination)
	if err != nil {
		return fmt.Errorf("export destination: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("export destination %s is not a directory", destination)
	}

	for _, src := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		dst := uniqueDestination(destination, filepath.Base(src))
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("export %s: %w", src, err)
		}
		debug.Log(debug.IMAGING, "ExportImages: %s -> %s", src, dst)
	}
	return nil
}

// uniqueDestination returns dir/name, or dir/base_copyN.ext when taken.
func uniqueDestination(dir, name string) string {
	dst := filepath.Join(dir, name)
	if !pathExists(dst) {
		return dst
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		dst = filepath.Join(dir, base+"_copy"+strconv.Itoa(i)+ext)
		if !pathExists(dst) {
			return dst
		}
	}
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	info, err := srcFile.Stat()
	if err != nil {
		return err
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		os.Remove(dst)
		return err
	}
	return dstFile.Close()
}
