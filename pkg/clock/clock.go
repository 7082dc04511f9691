package clock

import "time"

// Clock 时间源抽象
// 限流与审批时间戳均通过 Clock 获取当前时间，测试中注入假时钟即可
// 无需真实等待
type Clock interface {
	Now() time.Time
}

// System 真实系统时钟
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fake 测试用假时钟，可手动推进
type Fake struct {
	Current time.Time
}

func (f *Fake) Now() time.Time { return f.Current }

// Advance 推进假时钟
func (f *Fake) Advance(d time.Duration) { f.Current = f.Current.Add(d) }
