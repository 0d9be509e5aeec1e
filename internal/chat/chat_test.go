package chat

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ChainPilot/internal/agent"
)

type stubExecutor struct {
	prompts []string
	modes   []string
	reply   string
	err     error
}

func (s *stubExecutor) Execute(_ context.Context, mode, prompt string, observe agent.Observer) (*agent.Result, error) {
	s.prompts = append(s.prompts, prompt)
	s.modes = append(s.modes, mode)
	if s.err != nil {
		return nil, s.err
	}
	if observe != nil {
		observe(s.reply)
	}
	return &agent.Result{Reply: s.reply}, nil
}

func TestRunChatExitSentinel(t *testing.T) {
	cases := []string{"exit", "EXIT", "Exit", "  eXiT  "}
	for _, sentinel := range cases {
		executor := &stubExecutor{reply: "ok"}
		in := strings.NewReader("hello\n" + sentinel + "\nshould not reach\n")
		var out bytes.Buffer

		if err := RunChat(context.Background(), executor, in, &out); err != nil {
			t.Fatalf("unexpected error for sentinel %q: %v", sentinel, err)
		}
		if len(executor.prompts) != 1 || executor.prompts[0] != "hello" {
			t.Fatalf("sentinel %q: unexpected prompts %v", sentinel, executor.prompts)
		}
	}
}

func TestRunChatNonSentinelKeepsLooping(t *testing.T) {
	executor := &stubExecutor{reply: "ok"}
	in := strings.NewReader("exit please\nexiting\nexit\n")
	var out bytes.Buffer

	if err := RunChat(context.Background(), executor, in, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(executor.prompts) != 2 {
		t.Fatalf("inputs resembling the sentinel must not terminate: %v", executor.prompts)
	}
}

func TestRunChatSkipsBlankLines(t *testing.T) {
	executor := &stubExecutor{reply: "ok"}
	in := strings.NewReader("\n   \nreal prompt\nexit\n")
	var out bytes.Buffer

	if err := RunChat(context.Background(), executor, in, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(executor.prompts) != 1 || executor.prompts[0] != "real prompt" {
		t.Fatalf("unexpected prompts: %v", executor.prompts)
	}
}

func TestRunChatAgentErrorIsFatal(t *testing.T) {
	boom := errors.New("boom")
	executor := &stubExecutor{err: boom}
	in := strings.NewReader("hello\nexit\n")
	var out bytes.Buffer

	if err := RunChat(context.Background(), executor, in, &out); !errors.Is(err, boom) {
		t.Fatalf("expected agent error to propagate, got %v", err)
	}
}

func TestRunChatEOFTerminates(t *testing.T) {
	executor := &stubExecutor{reply: "ok"}
	in := strings.NewReader("hello\n")
	var out bytes.Buffer

	if err := RunChat(context.Background(), executor, in, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(executor.prompts) != 1 {
		t.Fatalf("unexpected prompts: %v", executor.prompts)
	}
}

func TestRunAutonomousUsesFixedPrompt(t *testing.T) {
	executor := &stubExecutor{reply: "done"}
	ctx, cancel := context.WithCancel(context.Background())
	var out bytes.Buffer

	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	err := RunAutonomous(ctx, executor, &out, 5*time.Millisecond)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if len(executor.prompts) == 0 {
		t.Fatalf("expected at least one iteration")
	}
	for i, prompt := range executor.prompts {
		if prompt != autonomousPrompt {
			t.Fatalf("iteration %d used unexpected prompt %q", i, prompt)
		}
		if executor.modes[i] != "auto" {
			t.Fatalf("iteration %d used unexpected mode %q", i, executor.modes[i])
		}
	}
}

func TestRunAutonomousAgentErrorIsFatal(t *testing.T) {
	boom := errors.New("boom")
	executor := &stubExecutor{err: boom}
	var out bytes.Buffer

	if err := RunAutonomous(context.Background(), executor, &out, time.Millisecond); !errors.Is(err, boom) {
		t.Fatalf("expected agent error to propagate, got %v", err)
	}
}

func TestChooseMode(t *testing.T) {
	cases := map[string]string{
		"1\n":        ModeChat,
		"chat\n":     ModeChat,
		"CHAT\n":     ModeChat,
		"2\n":        ModeAutonomous,
		"auto\n":     ModeAutonomous,
		"bogus\n2\n": ModeAutonomous,
	}
	for input, want := range cases {
		var out bytes.Buffer
		got, err := ChooseMode(strings.NewReader(input), &out)
		if err != nil {
			t.Fatalf("input %q: unexpected error %v", input, err)
		}
		if got != want {
			t.Fatalf("input %q: got %q want %q", input, got, want)
		}
	}

	var out bytes.Buffer
	if _, err := ChooseMode(strings.NewReader(""), &out); err == nil {
		t.Fatalf("expected error on EOF")
	}
}
