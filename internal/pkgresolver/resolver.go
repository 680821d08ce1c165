package pkgresolver

import (
	"fmt"
	"go/build"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/donutnomad/restgen/internal/utils"
)

// Resolver 导入路径到真实包名的解析器
// 结果按导入路径缓存，可并发使用
type Resolver struct {
	module *Module // 当前模块，可为空

	mu    sync.RWMutex
	cache map[string]string
}

// NewResolver 创建解析器，module 为空时只解析标准库和模块缓存中的包
func NewResolver(module *Module) *Resolver {
	return &Resolver{
		module: module,
		cache:  make(map[string]string),
	}
}

// PackageName 获取导入路径对应的真实包名
//
// 示例：
//
//	"fmt" → "fmt"
//	"net/url" → "url"
//	"github.com/samber/lo" → "lo"
//	"gopkg.in/yaml.v3" → "yaml"
//
// 找不到包源码时根据导入路径推断
func (r *Resolver) PackageName(importPath string) string {
	r.mu.RLock()
	name, ok := r.cache[importPath]
	r.mu.RUnlock()
	if ok {
		return name
	}

	name = utils.PackageName(importPath)
	if dir, err := r.resolveDir(importPath); err == nil {
		if real, err := readPackageName(dir); err == nil {
			name = real
		}
	}

	r.mu.Lock()
	r.cache[importPath] = name
	r.mu.Unlock()
	return name
}

// resolveDir 将导入路径解析为磁盘路径
func (r *Resolver) resolveDir(importPath string) (string, error) {
	// 模块路径可以不含点（如 module app），需先于标准库判断
	if r.module != nil && r.module.Contains(importPath) {
		return r.module.PackageDir(importPath)
	}
	if IsStdLib(importPath) {
		return filepath.Join(build.Default.GOROOT, "src", filepath.FromSlash(importPath)), nil
	}
	return findThirdPartyPackage(importPath)
}

// IsStdLib 判断是否是标准库
// 标准库路径的第一段不含点
func IsStdLib(importPath string) bool {
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}

// readPackageName 读取目录中第一个非测试文件的 package 声明
func readPackageName(pkgDir string) (string, error) {
	entries, err := os.ReadDir(pkgDir)
	if err != nil {
		return "", fmt.Errorf("读取目录失败 %s: %w", pkgDir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}

		f, err := parser.ParseFile(token.NewFileSet(), filepath.Join(pkgDir, name), nil, parser.PackageClauseOnly)
		if err != nil {
			return "", fmt.Errorf("解析文件 %s 失败: %w", name, err)
		}
		// package main 或 documentation 包不能作为包名依据
		if f.Name.Name == "main" || f.Name.Name == "documentation" {
			continue
		}
		return f.Name.Name, nil
	}

	return "", fmt.Errorf("目录 %s 中没有找到 Go 源文件", pkgDir)
}

// findThirdPartyPackage 在 GOMODCACHE 中查找第三方包的路径
func findThirdPartyPackage(importPath string) (string, error) {
	goModCache := os.Getenv("GOMODCACHE")
	if goModCache == "" {
		goPath := os.Getenv("GOPATH")
		if goPath == "" {
			goPath = build.Default.GOPATH
		}
		goModCache = filepath.Join(goPath, "pkg", "mod")
	}

	parts := strings.Split(importPath, "/")
	for i := len(parts); i >= 1; i-- {
		modulePath := strings.Join(parts[:i], "/")
		subPath := strings.Join(parts[i:], "/")

		matches, err := filepath.Glob(filepath.Join(goModCache, encodeModulePath(modulePath)+"@*"))
		if err != nil || len(matches) == 0 {
			continue
		}

		// 按字典序最后一个通常版本号较高
		finalPath := filepath.Join(matches[len(matches)-1], filepath.FromSlash(subPath))
		if _, err := os.Stat(finalPath); err == nil {
			return finalPath, nil
		}
	}

	return "", fmt.Errorf("未找到第三方包 %s", importPath)
}

// encodeModulePath 将模块路径编码为 Go 模块缓存使用的格式
// 大写字母前添加 ! 并转为小写，如 github.com/Xuanwo/gg -> github.com/!xuanwo/gg
func encodeModulePath(path string) string {
	var result strings.Builder
	for _, r := range path {
		if r >= 'A' && r <= 'Z' {
			result.WriteRune('!')
			result.WriteRune(r + 32)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
