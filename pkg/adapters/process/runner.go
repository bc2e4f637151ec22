package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"strings"

	"github.com/aretw0/quoteflow/internal/logging"
	"github.com/aretw0/quoteflow/pkg/domain"
	"github.com/aretw0/quoteflow/pkg/ports"
)

// Hook names understood by Backend.
const (
	HookEnrich = "enrich"
	HookSubmit = "submit"
)

// ErrHookNotRegistered is returned when an operation has no hook.
var ErrHookNotRegistered = errors.New("hook not registered")

// Backend serves enrichment and submission through local commands. Only
// registered commands run. Each one gets the request as JSON on stdin and
// QUOTEFLOW_HOOK / QUOTEFLOW_CHANNEL in its environment, and must print a
// JSON answer on stdout.
type Backend struct {
	hooks   map[string]Hook
	baseDir string
	logger  *slog.Logger
}

var (
	_ ports.Enricher  = (*Backend)(nil)
	_ ports.Submitter = (*Backend)(nil)
)

// Option configures the backend.
type Option func(*Backend)

// WithHooks registers every hook of a loaded config.
func WithHooks(hooks map[string]Hook) Option {
	return func(b *Backend) {
		for name, hook := range hooks {
			hook.Name = name
			b.hooks[name] = hook
		}
	}
}

// WithBaseDir sets the working directory for executed commands.
func WithBaseDir(dir string) Option {
	return func(b *Backend) {
		b.baseDir = dir
	}
}

// WithLogger sets the backend logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		b.logger = logger
	}
}

// NewBackend creates a command backend.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{hooks: make(map[string]Hook)}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = logging.NewNop()
	}
	return b
}

// Register adds a trusted command for name.
func (b *Backend) Register(name string, command string, args ...string) {
	b.hooks[name] = Hook{Name: name, Command: command, Args: args}
}

// Has reports whether name has a registered command.
func (b *Backend) Has(name string) bool {
	_, ok := b.hooks[name]
	return ok
}

type enrichInput struct {
	Channel    string   `json:"channel"`
	VariantIDs []string `json:"variantIds"`
}

// Enrich runs the enrich hook. Its output maps variant id to enrichment.
func (b *Backend) Enrich(ctx context.Context, channel string, variantIDs []string) (map[string]domain.Enrichment, error) {
	out := make(map[string]domain.Enrichment)
	if err := b.run(ctx, HookEnrich, channel, enrichInput{Channel: channel, VariantIDs: variantIDs}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Submit runs the submit hook. Its output is the confirmation.
func (b *Backend) Submit(ctx context.Context, order domain.Order) (domain.Confirmation, error) {
	var conf domain.Confirmation
	if err := b.run(ctx, HookSubmit, order.Channel, order, &conf); err != nil {
		return domain.Confirmation{}, err
	}
	return conf, nil
}

func (b *Backend) run(ctx context.Context, name, channel string, in, out any) error {
	hook, ok := b.hooks[name]
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrHookNotRegistered)
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("hook %s: encode input: %w", name, err)
	}

	cmd := exec.CommandContext(ctx, hook.Command, hook.Args...)
	cmd.Dir = b.baseDir
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Env = append(cmd.Environ(), hookEnv(hook, name, channel)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	b.logger.Debug("running hook", "hook", name, "command", hook.Command, "channel", channel)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("hook %s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}

	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), out); err != nil {
		return fmt.Errorf("hook %s: invalid output: %w", name, err)
	}
	return nil
}

// hookEnv builds the extra environment of a hook. Configured variables come
// first so the QUOTEFLOW_ ones cannot be overridden.
func hookEnv(hook Hook, name, channel string) []string {
	keys := make([]string, 0, len(hook.Environment))
	for k := range hook.Environment {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys)+2)
	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%s", k, hook.Environment[k]))
	}
	return append(env, "QUOTEFLOW_HOOK="+name, "QUOTEFLOW_CHANNEL="+channel)
}
