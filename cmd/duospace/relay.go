package main

import (
	"fmt"
	"log"
	"net/http"

	hertz "github.com/cloudwego/hertz/pkg/app/server"
	"github.com/spf13/cobra"

	"github.com/zxhanraja/duo-space/internal/relay/hertzapi"
	"github.com/zxhanraja/duo-space/internal/relay/httpapi"
	"github.com/zxhanraja/duo-space/internal/relay/rooms"
)

type relayConfig struct {
	bind   string
	port   int
	engine string
}

func newRelayCmd() *cobra.Command {
	cfg := &relayConfig{}
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Run the thin relay that bridges paired peers across devices.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelay(cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: DUOSPACE_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: DUOSPACE_PORT)")
	fs.StringVar(&cfg.engine, "engine", "echo", "http engine, echo or hertz (env: DUOSPACE_ENGINE)")

	bindFlags(cmd)
	return cmd
}

func runRelay(cfg *relayConfig) error {
	addr := fmt.Sprintf("%s:%d", cfg.bind, cfg.port)
	manager := rooms.NewManager()

	switch cfg.engine {
	case "echo":
		srv := httpapi.NewServer(manager)
		log.Printf("relay listening on %s", addr)
		return http.ListenAndServe(addr, srv.Router())
	case "hertz":
		h := hertz.Default(hertz.WithHostPorts(addr))
		hertzapi.NewRouter(h, manager)
		h.Spin()
		return nil
	default:
		return fmt.Errorf("unknown engine: %s", cfg.engine)
	}
}
