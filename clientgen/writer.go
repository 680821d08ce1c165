package clientgen

import (
	"fmt"
	"path/filepath"

	"github.com/donutnomad/restgen/internal/pkgresolver"
)

// ResolvePath 计算生成文件在模块中的磁盘路径
func ResolvePath(module *pkgresolver.Module, relativePath string) (string, error) {
	dir, file := filepath.Split(relativePath)
	pkgPath := filepath.ToSlash(filepath.Clean(dir))

	pkgDir, err := module.PackageDir(pkgPath)
	if err != nil {
		return "", fmt.Errorf("无法确定 %s 的输出目录: %w", relativePath, err)
	}
	return filepath.Join(pkgDir, file), nil
}
