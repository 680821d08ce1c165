package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/bytedance/sonic"
	goversion "github.com/caarlos0/go-version"
	"github.com/donutnomad/restgen/annotation"
	"github.com/donutnomad/restgen/clientgen"
	"github.com/donutnomad/restgen/model"
	"github.com/donutnomad/restgen/plugin"
	"github.com/fatih/color"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	version   = "dev"
	commit    = ""
	date      = ""
	builtBy   = ""
	treeState = ""
)

var (
	verbose     = flag.Bool("v", false, "详细输出")
	help        = flag.Bool("h", false, "显示帮助信息")
	showVersion = flag.Bool("version", false, "显示版本信息")
	client      = flag.String("client", clientgen.DefaultClientPackage, "客户端子包名")
	fileName    = flag.String("filename", clientgen.SnakeFileNameTemplate, "生成文件名模板（不含 .go，支持 sprig 函数和 snake）")
	annotations = flag.String("annotations", "", "注解翻译表 YAML 文件，追加到内置翻译表")
	report      = flag.String("report", "", "将生成统计写入 JSON 文件")
	async       = flag.Bool("async", true, "异步执行生成器（默认 true）")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if *help {
		usage()
		os.Exit(0)
	}
	if *showVersion {
		fmt.Println(buildVersion().String())
		os.Exit(0)
	}

	args := flag.Args()

	// 默认命令是 gen
	if len(args) == 0 {
		runGen([]string{"./..."})
		return
	}

	switch args[0] {
	case "gen":
		runGen(args[1:])
	case "dev":
		runDev(args[1:])
	default:
		// 不是子命令，当作路径参数处理，执行 gen
		runGen(args)
	}
}

func buildVersion() goversion.Info {
	return goversion.GetVersionInfo(
		goversion.WithAppDetails("restgen", "为 @Entity 结构体生成 REST 客户端代码", "https://github.com/donutnomad/restgen"),
		func(i *goversion.Info) {
			if commit != "" {
				i.GitCommit = commit
			}
			if version != "" {
				i.GitVersion = version
			}
			if treeState != "" {
				i.GitTreeState = treeState
			}
			if date != "" {
				i.BuildDate = date
			}
			if builtBy != "" {
				i.BuiltBy = builtBy
			}
		},
	)
}

// newLogger 创建日志，-v 时输出调试信息
func newLogger(verbose bool) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.TimeKey = ""
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		cfg.DisableCaller = true
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}

// newTranslationRegistry 构建注解翻译表：内置规则 + -annotations 文件
func newTranslationRegistry() (*annotation.Registry, error) {
	registry := annotation.Default()
	if *annotations != "" {
		if err := registry.LoadFile(*annotations); err != nil {
			return nil, err
		}
	}
	return registry.Seal(), nil
}

// newGeneratorRegistry 构建生成器注册表
func newGeneratorRegistry(translations *annotation.Registry) (*plugin.Registry, error) {
	engine, err := clientgen.New(translations,
		clientgen.WithClientPackage(*client),
		clientgen.WithFileNameTemplate(*fileName),
	)
	if err != nil {
		return nil, err
	}

	registry := plugin.NewRegistry()
	if err := registry.Register(clientgen.NewPlugin(engine)); err != nil {
		return nil, err
	}
	return registry, nil
}

func exitOnError(err error) {
	if err == nil {
		return
	}
	for _, e := range multierr.Errors(err) {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.New(color.FgRed).Sprint("错误:"), e)
	}
	os.Exit(1)
}

func runGen(args []string) {
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

	if *verbose {
		for _, gen := range registry.Generators() {
			anns := lo.Map(gen.Annotations(), func(item string, _ int) string {
				return "@" + item
			})
			logger.Debugf("已注册生成器: %s (%s)", gen.Name(), strings.Join(anns, ","))
		}
	}

	stats, err := plugin.RunWithOptionsAndStats(context.Background(), &plugin.RunOptions{
		Registry: registry,
		Patterns: patterns,
		Logger:   logger,
		Async:    *async,
	})

	if *report != "" && stats != nil {
		if werr := writeReport(*report, stats, err); werr != nil {
			err = multierr.Append(err, werr)
		}
	}

	if stats != nil && (stats.FileCount > 0 || *verbose) {
		fmt.Printf("\n%s 扫描 %d 个目标, 生成 %d 个文件, 跳过 %d 个\n",
			color.New(color.FgGreen).Sprint("统计:"), stats.TargetCount, stats.FileCount, stats.Skipped)
		fmt.Printf("%s 扫描 %v, 生成 %v, 总计 %v\n",
			color.New(color.FgCyan).Sprint("耗时:"), stats.ScanDuration, stats.GenerateDuration, stats.TotalDuration)
	}

	exitOnError(err)
}

// runReport -report 输出的 JSON 结构
type runReport struct {
	Targets    int      `json:"targets"`
	Files      []string `json:"files"`
	Skipped    int      `json:"skipped"`
	ScanMs     int64    `json:"scan_ms"`
	GenerateMs int64    `json:"generate_ms"`
	TotalMs    int64    `json:"total_ms"`
	Errors     []string `json:"errors,omitempty"`
}

func writeReport(path string, stats *plugin.RunStats, runErr error) error {
	r := runReport{
		Targets:    stats.TargetCount,
		Files:      stats.Files,
		Skipped:    stats.Skipped,
		ScanMs:     stats.ScanDuration.Milliseconds(),
		GenerateMs: stats.GenerateDuration.Milliseconds(),
		TotalMs:    stats.TotalDuration.Milliseconds(),
		Errors:     lo.Map(multierr.Errors(runErr), func(e error, _ int) string { return e.Error() }),
	}
	if r.Files == nil {
		r.Files = []string{}
	}

	data, err := sonic.ConfigStd.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化报告失败: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("写入报告 %s 失败: %w", path, err)
	}
	return nil
}

// formatTranslations 注解翻译表的帮助文本
func formatTranslations(registry *annotation.Registry) string {
	var rows [][2]string
	for _, source := range registry.Sources() {
		for _, t := range registry.Translations(source) {
			target := "@" + t.Target
			if len(t.Overrides) > 0 {
				attrs := lo.MapToSlice(t.Overrides, func(k string, v any) string {
					if ref, ok := v.(model.TypeRef); ok {
						return k + "=" + ref.String()
					}
					return fmt.Sprintf("%s=%v", k, v)
				})
				slices.Sort(attrs)
				target += "(" + strings.Join(attrs, ", ") + ")"
			}
			rows = append(rows, [2]string{"@" + source, "-> " + target})
		}
	}
	return plugin.FormatTable(rows, "  ")
}

func usage() {
	_, _ = fmt.Fprintf(os.Stderr, `restgen - REST 客户端代码生成工具

用法:
  restgen [选项] [路径...]
  restgen gen [选项] [路径...]
  restgen dev [选项] [路径...]

命令:
  gen     执行代码生成（默认）
  dev     启动开发模式，监听文件变动自动生成

路径:
  支持 Go 包路径模式，如:
    ./...          递归扫描当前目录及子目录（默认）
    ./pkg/...      递归扫描指定目录
    ./models       只扫描 models 目录

选项:
`)
	flag.PrintDefaults()

	if translations, err := newTranslationRegistry(); err == nil {
		if registry, err := newGeneratorRegistry(translations); err == nil {
			_, _ = fmt.Fprintf(os.Stderr, "\n支持的注解:\n")
			_, _ = fmt.Fprint(os.Stderr, plugin.FormatHelpText(registry))
		}
		_, _ = fmt.Fprintf(os.Stderr, "字段注解翻译:\n")
		_, _ = fmt.Fprint(os.Stderr, formatTranslations(translations))
	}

	_, _ = fmt.Fprintf(os.Stderr, `
包级配置:
  // go:restgen: -client `+"`api`"+`      该包的客户端子包名

示例:
  restgen                                   扫描当前目录（默认 ./...）
  restgen -v ./models/...                   详细模式扫描 models 目录
  restgen -client api ./...                 生成到 api 子包
  restgen -annotations rest.yaml ./...      追加注解翻译规则
  restgen -report report.json ./...         输出生成统计
  restgen dev ./...                         开发模式，监听文件变动
`)
}
