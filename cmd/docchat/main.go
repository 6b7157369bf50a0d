// =============================================================================
// DocChat 命令行入口
// =============================================================================
// 本地调试用的交互式会话：加载配置、组装系统、逐行读入问题并流式输出回答。
//
// 使用方法:
//
//	docchat --config config.yaml --user <user-id>
//	docchat version
// =============================================================================

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/BaSui01/docchat"
	"github.com/BaSui01/docchat/chat"
	"github.com/BaSui01/docchat/config"
	"github.com/BaSui01/docchat/llm"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（空则仅用环境变量与默认值）")
	userID := flag.String("user", "local", "检索作用域的用户 ID")
	flag.Parse()

	if flag.Arg(0) == "version" {
		fmt.Printf("docchat %s (built %s)\n", version, buildTime)
		return
	}

	cfg, err := config.NewLoader().WithConfigPath(*configPath).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	sys, err := docchat.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "assemble system: %v\n", err)
		os.Exit(1)
	}
	defer sys.Close()
	defer sys.Logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := repl(ctx, sys, *userID); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// repl 逐行读入问题，维护会话历史并流式打印回答。
func repl(ctx context.Context, sys *docchat.System, userID string) error {
	tc := sys.NewToolContext(nil, true)
	tc.UserID = userID
	tc.RetrieveFn = sys.RetrieveFn(userID)

	var history []llm.Message
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	fmt.Println("docchat — 输入问题，Ctrl-D 退出")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		history = append(history, llm.NewUserMessage(question))

		var answer strings.Builder
		for ev := range sys.Orchestrator.StreamChatCompletion(ctx, tc, history) {
			switch ev.Type {
			case chat.EventToken:
				fmt.Print(ev.Token)
				answer.WriteString(ev.Token)
			case chat.EventStatus:
				fmt.Fprintf(os.Stderr, "[%s]\n", ev.Status)
			case chat.EventTool:
				sys.Logger.Debug("tool event", zap.String("tool", ev.Tool.ToolName))
			case chat.EventError:
				fmt.Fprintf(os.Stderr, "error: %v\n", ev.Err)
			}
		}
		fmt.Println()
		if ctx.Err() != nil {
			return nil
		}
		history = append(history, llm.NewAssistantMessage(answer.String()))
	}
}
