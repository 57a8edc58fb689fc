package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/gottmail/toneguard/internal/core"
	"github.com/gottmail/toneguard/internal/di"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

func run(
	flags *di.CLIFlags,
	logger *zap.Logger,
	mailFilter core.MailFilter,
	llmClient core.LLMClient,
) error {
	defer logger.Sync()

	// Read message from file or stdin
	var msgReader io.Reader
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			logger.Fatal("Failed to open input file", zap.Error(err), zap.String("file", flags.InputFile))
		}
		defer file.Close()
		msgReader = file
		logger.Info("Reading message from file", zap.String("file", flags.InputFile))
	} else {
		msgReader = os.Stdin
		logger.Info("Reading message from stdin")
	}

	// Parse message
	parsed, err := mail.ReadMessage(bufio.NewReader(msgReader))
	if err != nil {
		logger.Fatal("Failed to parse message", zap.Error(err))
	}

	from := parsed.Header.Get("From")
	to := parsed.Header.Get("To")
	subject := parsed.Header.Get("Subject")

	bodyBytes, err := io.ReadAll(parsed.Body)
	if err != nil {
		logger.Fatal("Failed to read message body", zap.Error(err))
	}

	recipients := strings.Split(to, ",")
	for i, r := range recipients {
		recipients[i] = strings.TrimSpace(r)
	}

	msg := &core.EphemeralMessage{
		Sender:     from,
		Recipients: recipients,
		Subject:    subject,
		BodyText:   string(bodyBytes),
		ReceivedAt: time.Now(),
	}
	if len(recipients) > 0 {
		msg.OwnerContext = recipients[0]
	}

	if _, err := mailFilter.ProcessMessage(context.Background(), msg); err != nil {
		logger.Fatal("Failed to process message", zap.Error(err))
	}

	// Close any resources that need closing
	if closer, ok := llmClient.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
	}

	return nil
}
