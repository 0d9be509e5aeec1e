package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"ChainPilot/internal/agent"
)

// exitKeyword 是交互模式的退出哨兵，匹配时忽略大小写。
const exitKeyword = "exit"

// chunkSeparator 打在每段智能体输出之后，便于阅读。
const chunkSeparator = "-------------------"

// Executor 定义了模式循环所需的智能体能力。
type Executor interface {
	Execute(ctx context.Context, mode, prompt string, observe agent.Observer) (*agent.Result, error)
}

// RunChat 运行交互式对话循环：逐行读取用户输入并交给智能体处理，
// 直到用户输入退出哨兵或输入流结束。智能体返回的任何错误都是致命的。
func RunChat(ctx context.Context, executor Executor, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Fprint(out, "\nPrompt: ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("读取用户输入失败: %w", err)
			}
			return nil
		}

		input := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(input, exitKeyword) {
			return nil
		}
		if input == "" {
			continue
		}

		if _, err := executor.Execute(ctx, "chat", input, printObserver(out)); err != nil {
			return err
		}
	}
}

func printObserver(out io.Writer) agent.Observer {
	return func(chunk string) {
		if strings.TrimSpace(chunk) == "" {
			return
		}
		fmt.Fprintln(out, chunk)
		fmt.Fprintln(out, chunkSeparator)
	}
}
