package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jguan/nas-assistant/pkg/config"
	"github.com/jguan/nas-assistant/pkg/gateway"
	"github.com/jguan/nas-assistant/pkg/infra/logger"
	"github.com/jguan/nas-assistant/pkg/infra/ratelimit"
)

// rateLimitBurst lets a chat send a short burst of commands before the
// per-minute rate applies.
const rateLimitBurst = 5

func NewServeCommand(root *RootCommand) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API for the chat transport",
		Long: `Start the HTTP API used by the chat transport.

Routes:
  POST /api/v1/commands/{name}   run a command (status, vpn, disks, ...)
  POST /api/v1/chat              answer a free-text message
  GET  /health                   liveness

Every /api request must carry an X-Chat-ID header listed in
security.allowed_chat_ids.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), root, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: api.listen_addr)")

	return cmd
}

func runServe(ctx context.Context, root *RootCommand, addr string) error {
	cfg := root.Config()
	if len(cfg.Security.AllowedChatIDs) == 0 {
		logger.Warn("security.allowed_chat_ids is empty, every chat will be rejected")
	}

	server := gateway.NewServer(root.Assistant(), serverConfig(cfg, addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	return server.Stop(context.Background())
}

func serverConfig(cfg *config.Config, addr string) gateway.ServerConfig {
	sc := gateway.DefaultServerConfig()
	sc.Addr = cfg.API.ListenAddr
	if addr != "" {
		sc.Addr = addr
	}
	if cfg.LLM.TimeoutD > 0 {
		sc.WriteTimeout = cfg.LLM.TimeoutD + 30*time.Second
	}
	sc.AllowChat = cfg.IsChatAllowed
	if cfg.Security.RateLimitPerMin > 0 {
		sc.Limiter = ratelimit.New(cfg.Security.RateLimitPerMin, rateLimitBurst)
	}
	return sc
}
