package pkgresolver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/mod/modfile"
)

// Module 描述一个 Go 模块
type Module struct {
	Path string // 模块路径，go.mod 中的 module 声明
	Dir  string // 模块根目录（包含 go.mod）
}

// ErrNoModule 目录及其上级目录中没有 go.mod
var ErrNoModule = errors.New("未找到 go.mod")

var moduleCache sync.Map // dir -> *Module

// FindModule 从 dir 向上查找 go.mod 并解析模块路径
func FindModule(dir string) (*Module, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if m, ok := moduleCache.Load(absDir); ok {
		return m.(*Module), nil
	}

	for cur := absDir; ; {
		goModPath := filepath.Join(cur, "go.mod")
		content, err := os.ReadFile(goModPath)
		if err == nil {
			modPath := modfile.ModulePath(content)
			if modPath == "" {
				return nil, fmt.Errorf("未在 %s 中找到模块名称", goModPath)
			}
			m := &Module{Path: modPath, Dir: cur}
			moduleCache.Store(absDir, m)
			return m, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("读取 %s 失败: %w", goModPath, err)
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("%s: %w", dir, ErrNoModule)
		}
		cur = parent
	}
}

// ImportPath 返回模块内目录对应的导入路径
func (m *Module) ImportPath(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(m.Dir, absDir)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return m.Path, nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("目录 %s 不在模块 %s 内", dir, m.Path)
	}
	return m.Path + "/" + filepath.ToSlash(rel), nil
}

// Contains 判断导入路径是否属于该模块
func (m *Module) Contains(importPath string) bool {
	return importPath == m.Path || strings.HasPrefix(importPath, m.Path+"/")
}

// PackageDir 返回模块内导入路径对应的磁盘目录
func (m *Module) PackageDir(importPath string) (string, error) {
	if !m.Contains(importPath) {
		return "", fmt.Errorf("%s 不属于模块 %s", importPath, m.Path)
	}
	rel := strings.TrimPrefix(strings.TrimPrefix(importPath, m.Path), "/")
	return filepath.Join(m.Dir, filepath.FromSlash(rel)), nil
}
