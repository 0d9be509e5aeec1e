package chat

import (
	"context"
	"fmt"
	"io"
	"time"
)

// autonomousPrompt 是自主模式每轮使用的固定提示词。
const autonomousPrompt = "" +
	"Be creative and do something interesting on the blockchain. " +
	"Choose an action or set of actions and execute it that highlights your abilities."

// RunAutonomous 运行无人值守循环：每隔固定间隔向智能体发送固定提示词，
// 无限执行直到上下文取消。智能体返回的任何错误都是致命的。
func RunAutonomous(ctx context.Context, executor Executor, out io.Writer, interval time.Duration) error {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	for {
		fmt.Fprintln(out, "\nStarting autonomous iteration...")
		if _, err := executor.Execute(ctx, "auto", autonomousPrompt, printObserver(out)); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
