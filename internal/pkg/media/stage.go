package media

import "github.com/pkg/errors"

// StageError 记录失败发生在哪个处理阶段，Stage 可以直接展示给客户端，Err 只用于日志
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// WrapStage 用法同 errors.Wrap，err 为 nil 时返回 nil
func WrapStage(err error, stage string) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: errors.WithStack(err)}
}

// StageOf 返回错误链上最外层的阶段名
func StageOf(err error) (string, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
