package plugin

import (
	"bufio"
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Scanner 两阶段并行注解扫描器
// 第一阶段：快速文本匹配，找出可能包含注解的文件
// 第二阶段：对匹配的文件进行 AST 解析，只收集带注解的结构体
type Scanner struct {
	workers int
	logger  *zap.SugaredLogger

	// 注解过滤器（可选）
	annotationFilter []string
}

// ScannerOption 扫描器选项
type ScannerOption func(*Scanner)

func WithWorkers(n int) ScannerOption {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithScannerLogger(logger *zap.SugaredLogger) ScannerOption {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithAnnotationFilter(annotations ...string) ScannerOption {
	return func(s *Scanner) {
		s.annotationFilter = annotations
	}
}

func NewScanner(opts ...ScannerOption) *Scanner {
	s := &Scanner{
		workers: runtime.NumCPU(),
		logger:  zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// quickMatchRegex 快速匹配注解的正则
// 匹配 @Name、@pkg.Name 或 @Name(...) 模式
var quickMatchRegex = regexp.MustCompile(`@([A-Za-z_][\w.]*)`)

// Scan 扫描指定路径
// 支持: ./... ./pkg/... ./pkg /abs/path/... file.go
func (s *Scanner) Scan(ctx context.Context, patterns ...string) (*ScanResult, error) {
	allFiles, err := s.collectFiles(patterns)
	if err != nil {
		return nil, err
	}

	result := &ScanResult{PackageConfigs: make(map[string]*PackageConfig)}
	if len(allFiles) == 0 {
		return result, nil
	}

	// ========== 第一阶段：快速匹配 ==========
	matchedFiles := runWorkers(ctx, s.workers, allFiles, func(file string) (string, bool) {
		matched, err := s.QuickMatchFile(file)
		if err != nil {
			s.logger.Debugf("跳过文件 %s: %v", file, err)
			return "", false
		}
		return file, matched
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(matchedFiles) == 0 {
		return result, nil
	}

	// ========== 第二阶段：AST 解析 ==========
	parsed := runWorkers(ctx, s.workers, matchedFiles, func(file string) (*fileResult, bool) {
		r, err := s.parseFile(file)
		if err != nil {
			s.logger.Warnf("解析文件 %s 失败: %v", file, err)
			return nil, false
		}
		return r, true
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, r := range parsed {
		result.Structs = append(result.Structs, r.structs...)
		if r.pkgConfig == nil {
			continue
		}
		pkgDir := r.pkgConfig.PackageDir
		if existing, ok := result.PackageConfigs[pkgDir]; ok {
			if existing.ClientPackage != r.pkgConfig.ClientPackage {
				s.logger.Warnf("包 %s 中存在多个不同的 go:restgen 配置，使用后发现的配置", pkgDir)
			}
			existing.ClientPackage = r.pkgConfig.ClientPackage
		} else {
			result.PackageConfigs[pkgDir] = r.pkgConfig
		}
	}

	// 并行收集的顺序不稳定，按文件和位置排序保证输出可重现
	slices.SortFunc(result.Structs, func(a, b *AnnotatedTarget) int {
		if c := strings.Compare(a.Target.FilePath, b.Target.FilePath); c != 0 {
			return c
		}
		return int(a.Target.Position - b.Target.Position)
	})

	return result, nil
}

// runWorkers 使用固定数量的工作者并行处理 items，收集 ok 为 true 的结果
func runWorkers[T any, R any](ctx context.Context, workers int, items []T, fn func(T) (R, bool)) []R {
	resultCh := make(chan R, len(items))
	itemCh := make(chan T)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range itemCh {
				if r, ok := fn(item); ok {
					resultCh <- r
				}
			}
		}()
	}

	go func() {
		defer close(itemCh)
		for _, item := range items {
			select {
			case <-ctx.Done():
				return
			case itemCh <- item:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var results []R
	for r := range resultCh {
		results = append(results, r)
	}
	return results
}

// QuickMatchFile 快速检查文件是否包含注解或 go:restgen 配置
// 用于 dev 模式判断文件是否需要触发代码生成
func (s *Scanner) QuickMatchFile(filePath string) (bool, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return false, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		trimmed := strings.TrimSpace(scanner.Text())
		// 只检查注释行
		if !strings.HasPrefix(trimmed, "//") && !strings.HasPrefix(trimmed, "/*") {
			continue
		}

		if strings.Contains(trimmed, directivePrefix) {
			return true, nil
		}

		for _, match := range quickMatchRegex.FindAllStringSubmatch(trimmed, -1) {
			if len(s.annotationFilter) == 0 || slices.Contains(s.annotationFilter, strings.TrimRight(match[1], ".")) {
				return true, nil
			}
		}
	}

	return false, scanner.Err()
}

type fileResult struct {
	structs   []*AnnotatedTarget
	pkgConfig *PackageConfig
}

// parseFile AST 解析单个文件
func (s *Scanner) parseFile(filePath string) (*fileResult, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filePath, nil, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	result := &fileResult{
		pkgConfig: s.parsePackageConfig(file, filePath),
	}

	for _, decl := range file.Decls {
		d, ok := decl.(*ast.GenDecl)
		if !ok || d.Tok != token.TYPE {
			continue
		}
		for _, spec := range d.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			if _, ok := typeSpec.Type.(*ast.StructType); !ok {
				continue
			}

			// type X struct 的注释挂在 GenDecl 上，type ( X struct ) 的注释挂在 TypeSpec 上
			doc := typeSpec.Doc
			if doc == nil && len(d.Specs) == 1 {
				doc = d.Doc
			}
			if doc == nil {
				continue
			}

			annotations := ParseAnnotations(doc.Text())
			if len(s.annotationFilter) > 0 {
				annotations = FilterByNames(annotations, s.annotationFilter...)
			}
			if len(annotations) == 0 {
				continue
			}

			result.structs = append(result.structs, &AnnotatedTarget{
				Target: &Target{
					Name:        typeSpec.Name.Name,
					PackageName: file.Name.Name,
					FilePath:    filePath,
					Position:    typeSpec.Pos(),
					Node:        typeSpec,
				},
				Annotations: annotations,
			})
		}
	}

	return result, nil
}

// collectFiles 收集所有需要扫描的文件
func (s *Scanner) collectFiles(patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, pattern := range patterns {
		recursive := strings.HasSuffix(pattern, "/...")
		if recursive {
			pattern = strings.TrimSuffix(pattern, "/...")
		}

		absPath, err := filepath.Abs(pattern)
		if err != nil {
			return nil, err
		}

		info, err := os.Stat(absPath)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if strings.HasSuffix(absPath, ".go") {
				add(absPath)
			}
			continue
		}

		err = filepath.WalkDir(absPath, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if d.IsDir() {
				if path == absPath {
					return nil
				}
				name := d.Name()
				if !recursive || strings.HasPrefix(name, ".") || name == "vendor" || name == "testdata" {
					return filepath.SkipDir
				}
				return nil
			}

			if isSourceFile(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

// isSourceFile 排除测试文件和生成的文件
func isSourceFile(path string) bool {
	return strings.HasSuffix(path, ".go") &&
		!strings.HasSuffix(path, "_test.go") &&
		!strings.HasSuffix(path, "_gen.go")
}

// 默认扫描器
var defaultScanner = NewScanner()

func Scan(ctx context.Context, patterns ...string) (*ScanResult, error) {
	return defaultScanner.Scan(ctx, patterns...)
}

func ScanWithFilter(ctx context.Context, annotations []string, patterns ...string) (*ScanResult, error) {
	return NewScanner(WithAnnotationFilter(annotations...)).Scan(ctx, patterns...)
}

const directivePrefix = "go:restgen:"

// directiveRegex 匹配 go:restgen: 指令
// 支持两种格式：//go:restgen: 和 // go:restgen:
var directiveRegex = regexp.MustCompile(`go:restgen:\s*(.*)`)

// parsePackageConfig 解析包级 go:restgen: 配置
// 支持格式:
//
//	//go:restgen: -client `api`
func (s *Scanner) parsePackageConfig(file *ast.File, filePath string) *PackageConfig {
	var lines []string

	for _, cg := range file.Comments {
		for _, c := range cg.List {
			text := strings.TrimPrefix(c.Text, "//")
			text = strings.TrimPrefix(text, "/*")
			text = strings.TrimSuffix(text, "*/")
			text = strings.TrimSpace(text)

			if matches := directiveRegex.FindStringSubmatch(text); len(matches) > 1 {
				lines = append(lines, matches[1])
			}
		}
	}

	if len(lines) == 0 {
		return nil
	}
	if len(lines) > 1 {
		s.logger.Warnf("文件 %s 定义了多个 go:restgen: 指令，将被忽略", filePath)
		return nil
	}

	return parseDirectiveLine(lines[0], filePath)
}

// parseDirectiveLine 解析单行 go:restgen: 配置
func parseDirectiveLine(line string, filePath string) *PackageConfig {
	config := &PackageConfig{
		PackageDir: filepath.Dir(filePath),
	}

	parts := splitArgs(strings.TrimSpace(line))
	for i := 0; i < len(parts); i++ {
		if parts[i] == "-client" && i+1 < len(parts) {
			i++
			config.ClientPackage = trimQuotes(parts[i])
		}
	}

	if config.ClientPackage == "" {
		return nil
	}
	return config
}

// splitArgs 分割指令参数，支持引号内的空格
func splitArgs(line string) []string {
	var parts []string
	var current strings.Builder
	inQuote := false
	quoteChar := byte(0)

	for i := 0; i < len(line); i++ {
		c := line[i]

		switch {
		case !inQuote && (c == '`' || c == '"' || c == '\''):
			inQuote = true
			quoteChar = c
			current.WriteByte(c)
		case inQuote && c == quoteChar:
			inQuote = false
			quoteChar = 0
			current.WriteByte(c)
		case !inQuote && c == ' ':
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteByte(c)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}

// trimQuotes 去除引号
func trimQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '`' && s[len(s)-1] == '`') ||
			(s[0] == '"' && s[len(s)-1] == '"') ||
			(s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
