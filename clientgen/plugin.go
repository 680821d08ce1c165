package clientgen

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/davecgh/go-spew/spew"
	"github.com/donutnomad/gg"
	"github.com/donutnomad/restgen/annotation"
	"github.com/donutnomad/restgen/internal/goparse"
	"github.com/donutnomad/restgen/internal/pkgresolver"
	"github.com/donutnomad/restgen/plugin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

// EntityParams @Entity 注解支持的参数
type EntityParams struct {
	Client string `param:"name=client,required=false,default=,description=客户端子包名，覆盖包级 go:restgen 配置和 -client 参数"`
}

// Plugin 为 @Entity 结构体生成客户端代码的生成器
type Plugin struct {
	*plugin.BaseGenerator
	engine *Engine
}

// NewPlugin 创建生成器，engine 决定默认的客户端包名和文件名
func NewPlugin(engine *Engine) *Plugin {
	return &Plugin{
		BaseGenerator: plugin.NewBaseGenerator("clientgen", annotation.Entity).WithParams(EntityParams{}),
		engine:        engine,
	}
}

type targetOutput struct {
	path    string
	def     *gg.Generator
	skipped bool
	err     error
}

// Generate 解析、转换并渲染所有目标
// 单个结构体失败不会影响其他结构体，错误记录在结果中
func (p *Plugin) Generate(ctx *plugin.GenerateContext) (*plugin.GenerateResult, error) {
	logger := ctx.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	parser := goparse.NewParser()
	outputs := make([]targetOutput, len(ctx.Targets))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, target := range ctx.Targets {
		g.Go(func() error {
			outputs[i] = p.generateTarget(ctx, parser, logger, target)
			return nil
		})
	}
	_ = g.Wait()

	result := plugin.NewGenerateResult()
	for _, out := range outputs {
		switch {
		case out.err != nil:
			result.AddError(out.err)
		case out.skipped:
			result.Skipped++
		default:
			result.AddDefinition(out.path, out.def)
		}
	}
	return result, nil
}

func (p *Plugin) generateTarget(ctx *plugin.GenerateContext, parser *goparse.Parser, logger *zap.SugaredLogger, target *plugin.AnnotatedTarget) targetOutput {
	name := target.Target.Name

	engine, err := p.engineFor(ctx, target)
	if err != nil {
		return targetOutput{err: fmt.Errorf("%s: %w", name, err)}
	}

	src, err := parser.ParseStruct(target.Target.FilePath, name)
	if err != nil {
		return targetOutput{err: err}
	}

	class, err := engine.Generate(src)
	if err != nil {
		return targetOutput{err: err}
	}
	if class == nil {
		logger.Debugf("跳过 %s: 不是实体", name)
		return targetOutput{skipped: true}
	}
	if logger.Desugar().Core().Enabled(zapcore.DebugLevel) {
		logger.Debugf("生成 %s:\n%s", class.Source, spew.Sdump(class))
	}

	module, err := pkgresolver.FindModule(filepath.Dir(target.Target.FilePath))
	if err != nil {
		return targetOutput{err: err}
	}
	path, err := ResolvePath(module, class.RelativePath)
	if err != nil {
		return targetOutput{err: err}
	}

	return targetOutput{path: path, def: Definition(class)}
}

// engineFor 按 @Entity(client=...) > 包级配置 > 默认引擎 的优先级选择客户端包
func (p *Plugin) engineFor(ctx *plugin.GenerateContext, target *plugin.AnnotatedTarget) (*Engine, error) {
	var params EntityParams
	ann := plugin.GetAnnotation(target.Annotations, annotation.Entity)
	if err := plugin.ParseAnnotationParams(ann, &params, p.ParamDefs()); err != nil {
		return nil, err
	}

	client := params.Client
	if client == "" {
		if cfg := ctx.GetPackageConfig(filepath.Dir(target.Target.FilePath)); cfg != nil {
			client = cfg.ClientPackage
		}
	}
	if client == "" || client == p.engine.ClientPackage() {
		return p.engine, nil
	}
	return p.engine.Derive(WithClientPackage(client))
}
