package agent

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/vburojevic/xctap/internal/capture"
	"github.com/vburojevic/xctap/internal/device"
)

// Server exposes capture control as MCP tools over stdio. The session
// registry lives as long as the server, so an agent can start a capture,
// work, and collect the output minutes later. Captured bytes move only as
// tool results; nothing is streamed or pushed.
type Server struct {
	controller *capture.Controller
	devices    *device.Manager
	version    string
	log        *zap.Logger
}

// NewServer creates an MCP server around an existing controller and device
// manager.
func NewServer(controller *capture.Controller, devices *device.Manager, version string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{controller: controller, devices: devices, version: version, log: log}
}

// Serve speaks MCP on stdin/stdout until ctx is cancelled or stdin closes.
// All diagnostics go through zap to stderr; stdout carries only protocol
// frames.
func (s *Server) Serve(ctx context.Context) error {
	return s.serve(ctx, os.Stdin, os.Stdout)
}

func (s *Server) serve(ctx context.Context, in io.Reader, out io.Writer) error {
	m := server.NewMCPServer("xctap", s.version, server.WithToolCapabilities(false))
	s.registerTools(m)

	stdio := server.NewStdioServer(m)
	stdio.SetErrorLogger(zap.NewStdLog(s.log))

	s.log.Info("mcp server listening", zap.String("transport", "stdio"))
	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (s *Server) registerTools(m *server.MCPServer) {
	m.AddTool(mcp.NewTool("start_capture",
		mcp.WithDescription("Start capturing logs from an iOS app. Returns a session_id; call stop_capture with it to collect the output."),
		mcp.WithString("bundle_id",
			mcp.Required(),
			mcp.Description("App bundle identifier, e.g. com.example.myapp"),
		),
		mcp.WithString("simulator",
			mcp.Description("Simulator name, UDID, or 'booted'. Defaults to the booted simulator when no device is given."),
		),
		mcp.WithString("device",
			mcp.Description("Physical device name, UDID, or identifier. Mutually exclusive with simulator."),
		),
		mcp.WithString("mode",
			mcp.Description("Capture mode: 'structured' (unified log, simulators only, the simulator default) or 'console' (relaunch with console attached)."),
		),
	), s.handleStartCapture)

	m.AddTool(mcp.NewTool("stop_capture",
		mcp.WithDescription("Stop a capture session and return everything it captured."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session id returned by start_capture"),
		),
	), s.handleStopCapture)

	m.AddTool(mcp.NewTool("list_captures",
		mcp.WithDescription("List active capture sessions with their targets, apps, and uptimes."),
	), s.handleListCaptures)
}
