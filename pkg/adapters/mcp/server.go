package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/quoteflow"
	"github.com/aretw0/quoteflow/internal/logging"
	"github.com/aretw0/quoteflow/pkg/domain"
	"github.com/aretw0/quoteflow/pkg/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const definitionURI = "quoteflow://definition"

// Response is the structured output of every wizard tool. Intents that the
// wizard rejects (invalid form, incomplete step, empty order) are not tool
// errors: Error explains why and View shows what the user would see.
type Response struct {
	Changed bool              `json:"changed" jsonschema_description:"Whether the intent changed the session"`
	Cleared []string          `json:"cleared,omitempty" jsonschema_description:"Steps cleared by a cascade"`
	View    quoteflow.View    `json:"view" jsonschema_description:"The wizard view after the intent"`
	Error   string            `json:"error,omitempty" jsonschema_description:"Why the intent was rejected"`
	Fields  map[string]string `json:"fields,omitempty" jsonschema_description:"Field id to validation message"`
}

// StartArgs are the arguments of start_session.
type StartArgs struct {
	Vehicle string `json:"vehicle,omitempty"`
}

// SessionArgs address an existing session.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// ToggleArgs are the arguments of toggle_product.
type ToggleArgs struct {
	SessionID string `json:"session_id"`
	StepID    string `json:"step_id"`
	ProductID string `json:"product_id"`
}

// FieldArgs are the arguments of set_field.
type FieldArgs struct {
	SessionID string `json:"session_id"`
	StepID    string `json:"step_id"`
	FieldID   string `json:"field_id"`
	Value     string `json:"value"`
}

// VehicleArgs are the arguments of pick_vehicle. Empty values are skipped.
type VehicleArgs struct {
	SessionID string `json:"session_id"`
	Make      string `json:"make,omitempty"`
	Model     string `json:"model,omitempty"`
	Year      string `json:"year,omitempty"`
}

// NavigateArgs are the arguments of navigate.
type NavigateArgs struct {
	SessionID string `json:"session_id"`
	Action    string `json:"action"`
	Index     int    `json:"index,omitempty"`
}

// Server exposes a quoteflow.Service as MCP tools so an agent can fill in a
// quote on behalf of a user.
type Server struct {
	service   *quoteflow.Service
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(service *quoteflow.Service, opts ...Option) *Server {
	s := &Server{
		service:   service,
		mcpServer: server.NewMCPServer("quoteflow-mcp", strings.TrimSpace(quoteflow.Version), server.WithToolCapabilities(false)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start a new quote. Optionally preselect the vehicle product id."),
		mcp.WithString("vehicle", mcp.Description("Product id of the vehicle to preselect")),
		mcp.WithOutputSchema[Response](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("get_view",
		mcp.WithDescription("Render the current view of a quote session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id returned by start_session")),
		mcp.WithOutputSchema[Response](),
	), mcp.NewStructuredToolHandler(s.handleView))

	s.mcpServer.AddTool(mcp.NewTool("toggle_product",
		mcp.WithDescription("Select or deselect a product on a visible step. Changing a single choice clears the later steps."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithString("step_id", mcp.Required(), mcp.Description("Step id")),
		mcp.WithString("product_id", mcp.Required(), mcp.Description("Product id")),
		mcp.WithOutputSchema[Response](),
	), mcp.NewStructuredToolHandler(s.handleToggle))

	s.mcpServer.AddTool(mcp.NewTool("set_field",
		mcp.WithDescription("Set a form field and validate it."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithString("step_id", mcp.Required(), mcp.Description("Form step id")),
		mcp.WithString("field_id", mcp.Required(), mcp.Description("Field id")),
		mcp.WithString("value", mcp.Required(), mcp.Description("Field value")),
		mcp.WithOutputSchema[Response](),
	), mcp.NewStructuredToolHandler(s.handleSetField))

	s.mcpServer.AddTool(mcp.NewTool("pick_vehicle",
		mcp.WithDescription("Pick the vehicle by make, model and year."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithString("make", mcp.Description("Vehicle make")),
		mcp.WithString("model", mcp.Description("Vehicle model")),
		mcp.WithString("year", mcp.Description("Vehicle year")),
		mcp.WithOutputSchema[Response](),
	), mcp.NewStructuredToolHandler(s.handlePickVehicle))

	s.mcpServer.AddTool(mcp.NewTool("navigate",
		mcp.WithDescription("Move between steps: next, previous, jump (with index) or restart."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithString("action", mcp.Required(), mcp.Enum("next", "previous", "jump", "restart")),
		mcp.WithNumber("index", mcp.Description("Target step index for jump")),
		mcp.WithOutputSchema[Response](),
	), mcp.NewStructuredToolHandler(s.handleNavigate))

	s.mcpServer.AddTool(mcp.NewTool("submit",
		mcp.WithDescription("Validate the forms and submit the quote to its fulfilment channel."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithOutputSchema[Response](),
	), mcp.NewStructuredToolHandler(s.handleSubmit))

	s.mcpServer.AddTool(mcp.NewTool("get_definition",
		mcp.WithDescription("Get the wizard definition: steps, products and channels."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, err := json.Marshal(s.service.Definition())
		if err != nil {
			return mcp.NewToolResultErrorFromErr("encode definition", err), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args StartArgs) (Response, error) {
	view, err := s.service.Create(ctx, quoteflow.WithPreselect(args.Vehicle))
	if err != nil {
		return Response{}, fmt.Errorf("start failed: %w", err)
	}
	s.logger.Info("MCP: session started", "session_id", view.SessionID)
	return Response{View: view}, nil
}

func (s *Server) handleView(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (Response, error) {
	view, err := s.service.View(ctx, args.SessionID)
	if err != nil {
		return Response{}, err
	}
	return Response{View: view}, nil
}

func (s *Server) handleToggle(ctx context.Context, request mcp.CallToolRequest, args ToggleArgs) (Response, error) {
	return s.do(ctx, args.SessionID, func(ctx context.Context, w *quoteflow.Wizard) (quoteflow.Result, error) {
		return w.Toggle(ctx, args.StepID, args.ProductID), nil
	})
}

func (s *Server) handleSetField(ctx context.Context, request mcp.CallToolRequest, args FieldArgs) (Response, error) {
	return s.do(ctx, args.SessionID, func(ctx context.Context, w *quoteflow.Wizard) (quoteflow.Result, error) {
		set := w.SetField(ctx, args.StepID, args.FieldID, args.Value)
		res := w.Blur(ctx, args.StepID, args.FieldID)
		res.Changed = res.Changed || set.Changed
		return res, nil
	})
}

func (s *Server) handlePickVehicle(ctx context.Context, request mcp.CallToolRequest, args VehicleArgs) (Response, error) {
	return s.do(ctx, args.SessionID, func(ctx context.Context, w *quoteflow.Wizard) (quoteflow.Result, error) {
		out := quoteflow.Result{View: w.View()}
		apply := func(value string, set func(context.Context, string) quoteflow.Result) {
			if value == "" {
				return
			}
			res := set(ctx, value)
			out.Changed = out.Changed || res.Changed
			out.Cleared = append(out.Cleared, res.Cleared...)
			out.View = res.View
		}
		apply(args.Make, w.SetVehicleMake)
		apply(args.Model, w.SetVehicleModel)
		apply(args.Year, w.SetVehicleYear)
		return out, nil
	})
}

func (s *Server) handleNavigate(ctx context.Context, request mcp.CallToolRequest, args NavigateArgs) (Response, error) {
	var fn func(context.Context, *quoteflow.Wizard) (quoteflow.Result, error)
	switch args.Action {
	case "next":
		fn = func(ctx context.Context, w *quoteflow.Wizard) (quoteflow.Result, error) { return w.Next(ctx) }
	case "previous":
		fn = func(ctx context.Context, w *quoteflow.Wizard) (quoteflow.Result, error) { return w.Previous(ctx), nil }
	case "jump":
		fn = func(ctx context.Context, w *quoteflow.Wizard) (quoteflow.Result, error) { return w.JumpTo(ctx, args.Index), nil }
	case "restart":
		fn = func(ctx context.Context, w *quoteflow.Wizard) (quoteflow.Result, error) { return w.Restart(ctx), nil }
	default:
		return Response{}, fmt.Errorf("unknown action %q", args.Action)
	}
	return s.do(ctx, args.SessionID, fn)
}

func (s *Server) handleSubmit(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (Response, error) {
	return s.do(ctx, args.SessionID, func(ctx context.Context, w *quoteflow.Wizard) (quoteflow.Result, error) {
		return w.Submit(ctx)
	})
}

// do runs an intent. Only failures that leave no view (unknown session,
// storage errors) become tool errors.
func (s *Server) do(ctx context.Context, sessionID string, fn func(context.Context, *quoteflow.Wizard) (quoteflow.Result, error)) (Response, error) {
	if sessionID == "" {
		return Response{}, errors.New("session_id is required")
	}
	res, err := s.service.Do(ctx, sessionID, fn)
	resp := Response{Changed: res.Changed, Cleared: res.Cleared, View: res.View}
	if err == nil {
		return resp, nil
	}
	if res.View.SessionID == "" {
		s.logger.Warn("MCP: intent failed", "session_id", sessionID, "err", err)
		return Response{}, err
	}
	resp.Error = err.Error()
	if errors.Is(err, domain.ErrFormInvalid) {
		resp.Fields = schema.Messages(err)
	}
	return resp, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(definitionURI, "Quote Wizard Definition",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.service.Definition())
		if err != nil {
			return nil, fmt.Errorf("failed to encode definition: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      definitionURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
