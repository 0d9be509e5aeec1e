package chat

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// 支持的运行模式。
const (
	ModeChat       = "chat"
	ModeAutonomous = "auto"
)

// ChooseMode 展示两项菜单并读取用户选择，输入无效时重新询问。
// 输入流结束时返回错误。
func ChooseMode(in io.Reader, out io.Writer) (string, error) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintln(out, "\nAvailable modes:")
		fmt.Fprintln(out, "1. chat    - Interactive chat mode")
		fmt.Fprintln(out, "2. auto    - Autonomous action mode")
		fmt.Fprint(out, "\nChoose a mode (enter number or name): ")

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", fmt.Errorf("读取模式选择失败: %w", err)
			}
			return "", errors.New("输入流已结束，未选择模式")
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "1", ModeChat:
			return ModeChat, nil
		case "2", ModeAutonomous:
			return ModeAutonomous, nil
		}
		fmt.Fprintln(out, "Invalid choice. Please try again.")
	}
}
