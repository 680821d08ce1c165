package plugin

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/tools/imports"
)

// Writer 接收生成的源文件
// path 可以是绝对路径，也可以是相对路径
type Writer interface {
	Write(path string, src []byte) error
}

// WriterFunc 函数形式的 Writer
type WriterFunc func(path string, src []byte) error

func (f WriterFunc) Write(path string, src []byte) error {
	return f(path, src)
}

// FileWriter 将源文件格式化后写入磁盘
// 相对路径基于 Root 解析，Root 为空时基于当前工作目录
type FileWriter struct {
	Root string
}

// NewFileWriter 创建以 root 为根目录的 FileWriter
func NewFileWriter(root string) *FileWriter {
	return &FileWriter{Root: root}
}

// Resolve 计算输出文件的绝对路径
func (w *FileWriter) Resolve(path string) string {
	if filepath.IsAbs(path) || w.Root == "" {
		return path
	}
	return filepath.Join(w.Root, path)
}

// Write 格式化并写入文件
// 格式化失败时仍写入原始内容便于排查，同时返回错误
func (w *FileWriter) Write(path string, src []byte) error {
	path = w.Resolve(path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	formatted, fmtErr := Format(path, src)
	if fmtErr != nil {
		formatted = src
	}

	if err := os.WriteFile(path, formatted, 0644); err != nil {
		return fmt.Errorf("写入文件失败: %w", err)
	}
	if fmtErr != nil {
		return fmt.Errorf("格式化 %s 失败: %w", path, fmtErr)
	}
	return nil
}

// Format 使用 goimports 规则格式化源码
func Format(path string, src []byte) ([]byte, error) {
	return imports.Process(path, src, &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
}
