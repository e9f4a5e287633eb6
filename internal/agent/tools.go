package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/vburojevic/xctap/internal/capture"
)

// codedError pins the taxonomy code for failures where the phase, not the
// error type, decides the code (target resolution, mode parsing).
type codedError struct {
	code string
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }

func errorCode(err error) string {
	var coded *codedError
	if errors.As(err, &coded) {
		return coded.code
	}
	return capture.Code(err)
}

// toolError formats an error as "CODE: message" so agents can dispatch on
// the code without parsing prose.
func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", errorCode(err), err))
}

func toolJSON(v any) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("CAPTURE_FAILED: encode result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

func optString(request mcp.CallToolRequest, key string) string {
	if arguments, ok := request.Params.Arguments.(map[string]any); ok {
		if v, ok := arguments[key].(string); ok {
			return v
		}
	}
	return ""
}

type startArgs struct {
	Simulator string
	Device    string
	BundleID  string
	Mode      string
}

func (s *Server) handleStartCapture(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bundleID, err := request.RequireString("bundle_id")
	if err != nil {
		return mcp.NewToolResultError("INVALID_ARGS: missing or invalid 'bundle_id' argument"), nil
	}

	result, err := s.doStartCapture(ctx, startArgs{
		Simulator: optString(request, "simulator"),
		Device:    optString(request, "device"),
		BundleID:  bundleID,
		Mode:      optString(request, "mode"),
	})
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(result), nil
}

func (s *Server) doStartCapture(ctx context.Context, args startArgs) (map[string]any, error) {
	mode, err := capture.ParseMode(args.Mode)
	if err != nil {
		return nil, &codedError{code: "INVALID_MODE", err: err}
	}

	target, err := s.devices.FindTarget(ctx, args.Simulator, args.Device)
	if err != nil {
		return nil, &codedError{code: "DEVICE_NOT_FOUND", err: err}
	}

	res, err := s.controller.Start(capture.StartRequest{Target: target, App: args.BundleID, Mode: mode})
	if err != nil {
		return nil, err
	}

	result := map[string]any{
		"session_id": res.SessionID,
		"log_path":   res.LogPath,
		"pid":        res.PID,
		"kind":       string(target.Kind),
		"target":     target.UDID,
		"bundle_id":  args.BundleID,
		"mode":       string(res.Mode),
	}
	if target.Name != "" {
		result["target_name"] = target.Name
	}
	return result, nil
}

func (s *Server) handleStopCapture(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("INVALID_ARGS: missing or invalid 'session_id' argument"), nil
	}

	result, err := s.doStopCapture(sessionID)
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(result), nil
}

func (s *Server) doStopCapture(sessionID string) (map[string]any, error) {
	res, err := s.controller.Stop(sessionID)
	if err != nil {
		s.log.Warn("stop capture failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}
	return map[string]any{
		"session_id":     res.SessionID,
		"log_path":       res.LogPath,
		"bytes":          len(res.Content),
		"content":        string(res.Content),
		"process_exited": res.ProcessExited,
	}, nil
}

func (s *Server) handleListCaptures(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolJSON(s.doListCaptures()), nil
}

func (s *Server) doListCaptures() []map[string]any {
	sessions := s.controller.Sessions()
	now := s.controller.Clock().Now()

	result := make([]map[string]any, 0, len(sessions))
	for _, sess := range sessions {
		item := map[string]any{
			"session_id":     sess.ID,
			"kind":           string(sess.Target.Kind),
			"target":         sess.Target.UDID,
			"bundle_id":      sess.App,
			"mode":           string(sess.Mode),
			"log_path":       sess.LogPath,
			"started_at":     sess.StartedAt.UTC().Format(time.RFC3339),
			"uptime_seconds": int(sess.Uptime(now).Seconds()),
			"process_exited": sess.Exited(),
		}
		if sess.Target.Name != "" {
			item["target_name"] = sess.Target.Name
		}
		if pid := sess.PID(); pid > 0 {
			item["pid"] = pid
		}
		if fi, err := os.Stat(sess.LogPath); err == nil {
			item["bytes"] = fi.Size()
		}
		result = append(result, item)
	}
	return result
}
