package connector

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/mongoconnect/pkg/security"
)

// DBConfig describes one entry of a multi-database batch connect.
type DBConfig struct {
	Name    string
	Target  string
	Options Options
}

// ConnectMultiDB establishes several named connections concurrently. The
// whole batch is validated up front: an empty batch, a duplicate or empty
// name, or any malformed target rejects the batch before a single dial.
// If any establishment fails, every connection made so far is rolled back
// through the global close path and the triggering error names the entry.
func (m *Manager) ConnectMultiDB(ctx context.Context, configs []DBConfig) (map[string]Handle, error) {
	if len(configs) == 0 {
		return nil, ErrEmptyBatch
	}

	env := m.envFor(ctx)
	seen := make(map[string]struct{}, len(configs))
	for i, cfg := range configs {
		if cfg.Name == "" {
			return nil, fmt.Errorf("%w: config at index %d has no name", ErrValidation, i)
		}
		if _, dup := seen[cfg.Name]; dup {
			return nil, fmt.Errorf("%w: %q appears more than once", ErrDuplicateName, cfg.Name)
		}
		seen[cfg.Name] = struct{}{}

		result := security.ValidateTargetInEnv(env, cfg.Target, cfg.Options.AllowedHosts...)
		if !result.Valid {
			return nil, fmt.Errorf("%w: config %q: %s", ErrValidation, cfg.Name, strings.Join(result.Errors, "; "))
		}
	}

	var (
		handlesMu sync.Mutex
		handles   = make(map[string]Handle, len(configs))
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, cfg := range configs {
		g.Go(func() error {
			opts := cfg.Options
			opts.Name = cfg.Name
			handle, err := m.Connect(gctx, cfg.Target, opts)
			if err != nil {
				return fmt.Errorf("connection %q failed: %w", cfg.Name, err)
			}
			handlesMu.Lock()
			handles[cfg.Name] = handle
			handlesMu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// Roll the batch back; partial multi-DB setups are worse than none.
		_ = m.CloseAllConnections(context.WithoutCancel(ctx))
		return nil, err
	}
	return handles, nil
}
