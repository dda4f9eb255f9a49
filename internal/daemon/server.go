// Package daemon serves the interpreter to non-interactive callers as an
// MCP tool over stdio.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/marcelocantos/crsh/internal/cli"
	"github.com/marcelocantos/crsh/internal/interp"
)

// ToolRun is the name of the tool that runs one command line.
const ToolRun = "run"

// RunResult is the JSON body of a successful run call.
type RunResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
	// Exited is set when the line ran the exit builtin.
	Exited bool `json:"exited,omitempty"`
}

// Server exposes a cli.Runner as an MCP server. The runner's interpreter
// must capture output and must not terminate the process on exit.
type Server struct {
	runner      *cli.Runner
	mcp         *server.MCPServer
	idleTimeout time.Duration

	// mu serialises calls; the interpreter changes process-wide state.
	mu        sync.Mutex
	idleMu    sync.Mutex
	idleTimer *time.Timer
}

// New creates a server. idleTimeout of zero disables the idle shutdown.
func New(runner *cli.Runner, version string, idleTimeout time.Duration) *Server {
	s := &Server{
		runner:      runner,
		idleTimeout: idleTimeout,
		mcp:         server.NewMCPServer("crsh", version, server.WithToolCapabilities(false)),
	}
	s.mcp.AddTool(mcp.NewTool(ToolRun,
		mcp.WithDescription("Run one crsh command line (pipes, < > >> redirects, ; sequences, cd, exit) and return its captured output and exit status."),
		mcp.WithString("line", mcp.Required(), mcp.Description("The command line to run")),
	), s.handleRun)
	return s
}

// Serve speaks MCP on in/out until ctx is cancelled, the input ends, or the
// idle timer fires.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	idleCtx, idleCancel := context.WithCancel(ctx)
	defer idleCancel()

	if s.idleTimeout > 0 {
		s.idleMu.Lock()
		s.idleTimer = time.AfterFunc(s.idleTimeout, idleCancel)
		s.idleMu.Unlock()
		defer s.idleTimer.Stop()
	}

	err := server.NewStdioServer(s.mcp).Listen(idleCtx, in, out)
	if errors.Is(err, context.Canceled) && ctx.Err() == nil {
		// Idle shutdown is a clean exit.
		return nil
	}
	return err
}

func (s *Server) resetIdle() {
	s.idleMu.Lock()
	defer s.idleMu.Unlock()
	if s.idleTimer != nil {
		s.idleTimer.Reset(s.idleTimeout)
	}
}

func (s *Server) handleRun(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	line, err := req.RequireString("line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.resetIdle()
	defer s.resetIdle()
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.runner.RunLine(ctx, line)
	out := RunResult{ExitCode: cli.Status(res, err)}
	if res != nil {
		out.Stdout = string(res.Stdout)
		out.Stderr = string(res.Stderr)
	}

	var exitErr *interp.ExitError
	switch {
	case errors.As(err, &exitErr):
		out.Exited = true
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("crsh: %v", err)), nil
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal run result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
