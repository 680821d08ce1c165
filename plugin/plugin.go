package plugin

// Generator 是代码生成器接口
// 每个生成器绑定一组结构体注解，Run 将带有这些注解的结构体分发给它
type Generator interface {
	// Name 返回生成器名称
	Name() string

	// Annotations 返回该生成器响应的注解列表
	// 一个注解只能绑定一个生成器
	Annotations() []string

	// Priority 返回生成器优先级
	// 数字越小优先级越高，输出合并时优先级高的在前面
	Priority() int

	// ParamDefs 返回注解支持的参数定义，用于帮助信息
	ParamDefs() []ParamDef

	// Generate 执行代码生成
	Generate(ctx *GenerateContext) (*GenerateResult, error)
}

// BaseGenerator 提供基础实现，可嵌入
type BaseGenerator struct {
	name        string
	annotations []string
	priority    int
	params      []ParamDef
}

func NewBaseGenerator(name string, annotations ...string) *BaseGenerator {
	return &BaseGenerator{
		name:        name,
		annotations: annotations,
		priority:    100,
	}
}

func (g *BaseGenerator) Name() string {
	return g.name
}

func (g *BaseGenerator) Annotations() []string {
	return g.annotations
}

// Priority 返回生成器优先级
func (g *BaseGenerator) Priority() int {
	return g.priority
}

// SetPriority 设置生成器优先级，数字越小优先级越高
func (g *BaseGenerator) SetPriority(priority int) *BaseGenerator {
	g.priority = priority
	return g
}

func (g *BaseGenerator) ParamDefs() []ParamDef {
	return g.params
}

// WithParams 从带 param tag 的结构体设置参数定义
func (g *BaseGenerator) WithParams(v any) *BaseGenerator {
	g.params = ParseParamsFromStruct(v)
	return g
}
