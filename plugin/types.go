package plugin

import (
	"go/ast"
	"go/token"

	"github.com/donutnomad/gg"
	"go.uber.org/zap"
)

// Annotation 表示从注释中解析出的注解
type Annotation struct {
	Name   string            // 注解名称，如 "Entity"、"rest.LinkedResource"
	Params map[string]string // 参数原始文本，如 value=`widgets`
	Values map[string]any    // 类型化的参数值：string/bool/int64/float64/model.TypeRef
	Raw    string            // 原始注解文本
}

// Target 表示注解所在的结构体
type Target struct {
	Name        string    // 结构体名
	PackageName string    // 包名
	FilePath    string    // 文件路径
	Position    token.Pos // 位置信息

	// AST 节点（可选，用于深度解析）
	Node *ast.TypeSpec
}

// AnnotatedTarget 表示带注解的结构体
type AnnotatedTarget struct {
	Target      *Target
	Annotations []*Annotation
}

// ScanResult 表示扫描结果
type ScanResult struct {
	Structs []*AnnotatedTarget

	// PackageConfigs 包级配置
	// key: 包目录
	PackageConfigs map[string]*PackageConfig
}

// GenerateContext 生成上下文，传递给 Generator
type GenerateContext struct {
	Targets        []*AnnotatedTarget        // 该 Generator 需要处理的目标
	PackageConfigs map[string]*PackageConfig // 包级配置，key: 包目录
	Logger         *zap.SugaredLogger
}

// GetPackageConfig 获取指定包目录的配置
func (c *GenerateContext) GetPackageConfig(pkgDir string) *PackageConfig {
	if c.PackageConfigs == nil {
		return nil
	}
	return c.PackageConfigs[pkgDir]
}

// GenerateResult 生成结果
// Generator 返回 gg 定义，由 Run 统一合并写入
type GenerateResult struct {
	// Definitions 是生成的 gg 定义
	// key: 输出文件路径（相对路径或绝对路径）
	Definitions map[string]*gg.Generator

	// Errors 错误列表
	Errors []error

	// Skipped 跳过的数量
	Skipped int
}

// PackageConfig 包级生成配置
// 通过 // go:restgen: 注释定义
// 示例:
//
//	// go:restgen: -client `api`
type PackageConfig struct {
	PackageDir string // 包目录

	// ClientPackage 客户端子包名，覆盖命令行 -client
	ClientPackage string
}

// NewGenerateResult 创建新的生成结果
func NewGenerateResult() *GenerateResult {
	return &GenerateResult{
		Definitions: make(map[string]*gg.Generator),
	}
}

// AddDefinition 添加 gg 定义
func (r *GenerateResult) AddDefinition(path string, gen *gg.Generator) {
	if r.Definitions == nil {
		r.Definitions = make(map[string]*gg.Generator)
	}
	r.Definitions[path] = gen
}

// AddError 添加错误
func (r *GenerateResult) AddError(err error) {
	r.Errors = append(r.Errors, err)
}
