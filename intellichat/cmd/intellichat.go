// Command-line chat client: drives the same session and gateway stack as
// the HTTP server, one terminal turn at a time.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"intellichat/intellichat/config"
	"intellichat/intellichat/controllers"
	"intellichat/intellichat/prompt"
	"intellichat/intellichat/services/genai"
	"intellichat/intellichat/sessions"
	"intellichat/intellichat/utils/logging"

	"go.uber.org/zap"
)

func main() {
	logging.InitLogger()
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	client := genai.NewClient(cfg)
	gateway := genai.NewGateway(client)
	assembler := prompt.NewAssembler(cfg)
	manager := sessions.NewManager(cfg.SessionTTL)
	ctrl := controllers.NewChatController(manager, gateway, assembler)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	sess, welcome := ctrl.CreateSession(ctx)
	cancel()

	logging.AppLogger.Info("cli session started", zap.String("session_id", sess.ID))
	fmt.Println("Session:", sess.ID)
	if welcome != nil {
		fmt.Println()
		fmt.Println(welcome.Text())
	}
	fmt.Println()
	fmt.Println("Type your message, or 'exit' to quit. Prefix with 'img <url> ' to attach an image.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			break
		}
		if line == "" {
			continue
		}

		in := prompt.Input{Text: line}
		if rest, ok := strings.CutPrefix(line, "img "); ok {
			url, text, _ := strings.Cut(rest, " ")
			in = prompt.Input{Text: strings.TrimSpace(text), ImageURL: url}
		}

		turnCtx, turnCancel := context.WithTimeout(context.Background(), 2*time.Minute)
		view, err := ctrl.SendMessage(turnCtx, sess, in)
		turnCancel()
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}
		fmt.Println()
		fmt.Println(view.Text())
		for i, graph := range view.Graphs {
			fmt.Printf("\n--- graph block %d ---\n%s\n", i+1, graph)
		}
		fmt.Println()
	}
	ctrl.DeleteSession(sess.ID)
}
