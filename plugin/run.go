package plugin

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/donutnomad/gg"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// GeneratedHeader 生成文件的文件头
const GeneratedHeader = "Code generated by restgen. DO NOT EDIT."

// RunOptions 运行选项
type RunOptions struct {
	Registry *Registry
	Patterns []string
	Logger   *zap.SugaredLogger
	Async    bool   // 是否并行执行生成器
	Writer   Writer // 为空时使用 FileWriter
}

// RunStats 运行统计信息
type RunStats struct {
	ScanDuration     time.Duration // 扫描耗时
	GenerateDuration time.Duration // 生成耗时
	TotalDuration    time.Duration // 总耗时
	TargetCount      int           // 目标数量
	FileCount        int           // 生成文件数量
	Files            []string      // 生成的文件
	Skipped          int           // 生成器跳过的目标数量
}

// RunWithOptionsAndStats 运行代码生成并返回统计信息
// 1. 扫描指定路径的注解
// 2. 将目标分发给对应的生成器
// 3. 执行生成器
// 4. 合并同一文件的 gg 定义并写入文件
// 单个生成器或文件的失败不会中断其他输出，所有错误合并后返回
func RunWithOptionsAndStats(ctx context.Context, opts *RunOptions) (*RunStats, error) {
	totalStart := time.Now()
	stats := &RunStats{}

	registry := opts.Registry
	if registry == nil {
		return nil, errors.New("未指定生成器注册表")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	writer := opts.Writer
	if writer == nil {
		writer = &FileWriter{}
	}

	annotations := registry.Annotations()
	if len(annotations) == 0 {
		return nil, errors.New("没有已注册的生成器")
	}

	// 扫描
	scanStart := time.Now()
	scanner := NewScanner(
		WithAnnotationFilter(annotations...),
		WithScannerLogger(logger),
	)
	result, err := scanner.Scan(ctx, opts.Patterns...)
	if err != nil {
		return nil, fmt.Errorf("扫描失败: %w", err)
	}
	stats.ScanDuration = time.Since(scanStart)

	if len(result.Structs) == 0 {
		logger.Info("没有找到任何带注解的结构体")
		stats.TotalDuration = time.Since(totalStart)
		return stats, nil
	}

	stats.TargetCount = len(result.Structs)
	logger.Debugf("找到 %d 个带注解的结构体 (扫描耗时: %v)", stats.TargetCount, stats.ScanDuration)

	generateStart := time.Now()

	dispatch := registry.DispatchTargets(result)

	// Generators 已按优先级排序（优先级数字越小越靠前）
	var genNames []string
	for _, gen := range registry.Generators() {
		if _, ok := dispatch[gen.Name()]; ok {
			genNames = append(genNames, gen.Name())
		}
	}

	var (
		mu         sync.Mutex
		allErrors  error
		genResults = make(map[string]*GenerateResult)
	)

	executeGenerator := func(genName string) {
		gen, ok := registry.GetByName(genName)
		if !ok {
			return
		}
		targets := dispatch[genName]
		logger.Debugf("执行生成器: %s (开始处理 %d 个目标)", genName, len(targets))

		genCtx := &GenerateContext{
			Targets:        targets,
			PackageConfigs: result.PackageConfigs,
			Logger:         logger.Named(genName),
		}

		start := time.Now()
		genResult, err := gen.Generate(genCtx)
		logger.Debugf("执行生成器: %s (耗时: %v)", genName, time.Since(start))

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			allErrors = multierr.Append(allErrors, fmt.Errorf("生成器 %s 执行失败: %w", genName, err))
			return
		}
		if genResult != nil {
			genResults[genName] = genResult
		}
	}

	if opts.Async {
		var g errgroup.Group
		for _, genName := range genNames {
			g.Go(func() error {
				executeGenerator(genName)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for _, genName := range genNames {
			executeGenerator(genName)
		}
	}

	// 按优先级顺序收集 gg 定义，按输出路径分组
	fileDefinitions := make(map[string][]*gg.Generator)
	fileGenNames := make(map[string][]string)
	for _, genName := range genNames {
		genResult, ok := genResults[genName]
		if !ok {
			continue
		}
		for path, def := range genResult.Definitions {
			fileDefinitions[path] = append(fileDefinitions[path], def)
			fileGenNames[path] = append(fileGenNames[path], genName)
		}
		stats.Skipped += genResult.Skipped
		allErrors = multierr.Append(allErrors, multierr.Combine(genResult.Errors...))
	}

	paths := make([]string, 0, len(fileDefinitions))
	for path := range fileDefinitions {
		paths = append(paths, path)
	}
	slices.Sort(paths)

	for _, path := range paths {
		merged, err := mergeDefinitions(fileDefinitions[path], fileGenNames[path])
		if err != nil {
			allErrors = multierr.Append(allErrors, fmt.Errorf("合并文件 %s 的定义失败: %w", path, err))
			continue
		}

		if err := writer.Write(path, merged.Bytes()); err != nil {
			allErrors = multierr.Append(allErrors, fmt.Errorf("写入文件 %s 失败: %w", path, err))
			continue
		}
		stats.FileCount++
		stats.Files = append(stats.Files, path)
		logger.Infof("生成文件: %s", path)
	}

	stats.GenerateDuration = time.Since(generateStart)
	stats.TotalDuration = time.Since(totalStart)

	if allErrors != nil {
		errs := multierr.Errors(allErrors)
		for _, e := range errs {
			logger.Errorf("错误: %v", e)
		}
		return stats, fmt.Errorf("生成过程中出现 %d 个错误: %w", len(errs), allErrors)
	}

	return stats, nil
}

// mergeDefinitions 合并多个 gg.Generator 定义到一个文件
// 只有一个定义时原样返回，多个定义之间添加生成器分隔符
func mergeDefinitions(definitions []*gg.Generator, genNames []string) (*gg.Generator, error) {
	if len(definitions) == 0 {
		return nil, errors.New("没有定义需要合并")
	}
	if len(definitions) == 1 {
		return definitions[0], nil
	}

	merged := gg.New()
	merged.SetHeader(GeneratedHeader)

	var pkgName string
	for _, def := range definitions {
		if def.PackageName() == "" {
			continue
		}
		if pkgName == "" {
			pkgName = def.PackageName()
		} else if pkgName != def.PackageName() {
			return nil, fmt.Errorf("包名不一致: %s vs %s", pkgName, def.PackageName())
		}
	}
	if pkgName != "" {
		merged.SetPackage(pkgName)
	}

	// 不要手动收集 imports，Merge 会正确处理 imports 和别名
	for i, def := range definitions {
		genName := "unknown"
		if i < len(genNames) {
			genName = genNames[i]
		}
		merged.Body().AddLine()
		merged.Body().AddString(fmt.Sprintf("// ================ %s ================", genName))
		merged.Body().AddLine()
		merged.Merge(def)
	}

	return merged, nil
}
