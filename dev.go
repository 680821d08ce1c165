package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/donutnomad/restgen/plugin"
	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/tools/imports"
)

// DevOptions dev 命令选项
type DevOptions struct {
	Patterns []string      // 监听的路径模式
	Async    bool          // 异步执行
	Debounce time.Duration // 防抖动时间
	Logger   *zap.SugaredLogger
}

// devRunner 处理文件变动的核心逻辑
type devRunner struct {
	opts     *DevOptions
	registry *plugin.Registry
	watcher  *fsnotify.Watcher
	scanner  *plugin.Scanner
	ctx      context.Context // 用于响应退出信号

	mu          sync.Mutex
	pendingDirs map[string]*time.Timer // key: 包目录路径
}

// runDev 启动开发模式
func runDev(args []string) {
	patterns := args
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	logger := newLogger(*verbose)
	defer func() { _ = logger.Sync() }()

	translations, err := newTranslationRegistry()
	exitOnError(err)
	registry, err := newGeneratorRegistry(translations)
	exitOnError(err)

	opts := &DevOptions{
		Patterns: patterns,
		Async:    *async,
		Debounce: 2 * time.Second,
		Logger:   logger,
	}

	exitOnError(dev(registry, opts))
}

// dev 启动开发模式
func dev(registry *plugin.Registry, opts *DevOptions) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建文件监听器失败: %w", err)
	}
	defer watcher.Close()

	runner := &devRunner{
		opts:     opts,
		registry: registry,
		watcher:  watcher,
		scanner: plugin.NewScanner(
			plugin.WithAnnotationFilter(registry.Annotations()...),
			plugin.WithScannerLogger(opts.Logger),
		),
		ctx:         ctx,
		pendingDirs: make(map[string]*time.Timer),
	}

	// 退出时停止所有待处理的定时器
	defer func() {
		runner.mu.Lock()
		for _, timer := range runner.pendingDirs {
			timer.Stop()
		}
		runner.mu.Unlock()
	}()

	dirs, err := collectWatchDirs(opts.Patterns)
	if err != nil {
		return fmt.Errorf("收集监听目录失败: %w", err)
	}
	if len(dirs) == 0 {
		return fmt.Errorf("没有找到需要监听的目录")
	}

	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("添加监听目录失败 %s: %w", dir, err)
		}
		opts.Logger.Debugf("监听目录: %s", dir)
	}

	fmt.Printf("%s 监听 %d 个目录\n", color.New(color.FgHiGreen).Sprint("开发模式已启动"), len(dirs))
	fmt.Println("按 Ctrl+C 退出")
	fmt.Println()

	err = runner.watchLoop(ctx)
	fmt.Println("\n正在退出...")
	return err
}

// watchLoop 事件处理循环
func (r *devRunner) watchLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			r.handleEvent(event)

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			r.opts.Logger.Warnf("监听错误: %v", err)
		}
	}
}

// handleEvent 处理文件事件
func (r *devRunner) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	filePath := event.Name
	if !strings.HasSuffix(filePath, ".go") || strings.HasSuffix(filePath, "_test.go") {
		return
	}
	// 生成的客户端文件也在监听目录中，跳过以免循环触发
	if isGeneratedFile(filePath) {
		return
	}

	log := r.opts.Logger
	log.Debugf("检测到文件变化: %s", filePath)

	hasAnnotation, err := r.scanner.QuickMatchFile(filePath)
	if err != nil {
		log.Debugf("检查注解失败 %s: %v", filePath, err)
		return
	}
	if !hasAnnotation {
		log.Debugf("跳过文件（无注解）: %s", filePath)
		return
	}

	if err := checkSyntax(filePath); err != nil {
		log.Errorf("语法错误 %s: %v", filePath, err)
		return
	}

	r.scheduleGenerate(filepath.Dir(filePath))
}

// scheduleGenerate 防抖动调度生成
func (r *devRunner) scheduleGenerate(pkgDir string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if timer, exists := r.pendingDirs[pkgDir]; exists {
		timer.Stop()
	}

	r.pendingDirs[pkgDir] = time.AfterFunc(r.opts.Debounce, func() {
		if r.ctx.Err() != nil {
			return
		}

		r.runGenerate(pkgDir)

		r.mu.Lock()
		delete(r.pendingDirs, pkgDir)
		r.mu.Unlock()
	})
}

// runGenerate 只重新生成变动的包
func (r *devRunner) runGenerate(pkgDir string) {
	log := r.opts.Logger
	log.Debugf("触发代码生成: %s", pkgDir)

	stats, err := plugin.RunWithOptionsAndStats(r.ctx, &plugin.RunOptions{
		Registry: r.registry,
		Patterns: []string{pkgDir},
		Logger:   log,
		Async:    r.opts.Async,
	})
	if err != nil {
		log.Errorf("生成失败: %v", err)
		return
	}

	if stats != nil && stats.FileCount > 0 {
		fmt.Printf("%s %d 个文件 (耗时: %v)\n", color.New(color.FgGreen).Sprint("生成完成:"), stats.FileCount, stats.TotalDuration)
	} else {
		log.Debug("生成完成: 无文件生成")
	}
}

// checkSyntax 检查文件语法
func checkSyntax(filePath string) error {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	_, err = imports.Process(filePath, content, &imports.Options{
		Fragment:   true,
		AllErrors:  true,
		Comments:   true,
		FormatOnly: true,
	})
	return err
}

// collectWatchDirs 收集所有需要监听的目录
func collectWatchDirs(patterns []string) ([]string, error) {
	var dirs []string
	seen := make(map[string]bool)

	add := func(dir string) {
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	for _, pattern := range patterns {
		recursive := strings.HasSuffix(pattern, "/...")
		baseDir := strings.TrimSuffix(pattern, "/...")

		absDir, err := filepath.Abs(baseDir)
		if err != nil {
			return nil, err
		}

		info, err := os.Stat(absDir)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			continue
		}

		if !recursive {
			add(absDir)
			continue
		}

		err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			name := d.Name()
			if path != absDir && (strings.HasPrefix(name, ".") || name == "vendor" || name == "testdata") {
				return filepath.SkipDir
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return dirs, nil
}

// isGeneratedFile 检查文件首行是否为 restgen 生成标记
func isGeneratedFile(filePath string) bool {
	f, err := os.Open(filePath)
	if err != nil {
		return false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		return strings.Contains(line, plugin.GeneratedHeader)
	}
	return false
}
