package proxy

import (
	"context"
	"crypto/sha256"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/trungams/simple-cloud/model"
	"github.com/trungams/simple-cloud/registry"
	"github.com/trungams/simple-cloud/utilities/constants"
	"github.com/trungams/simple-cloud/utilities/utils"
)

const reloadTimeout = 30 * time.Second

// Renderer keeps the load balancer config file in sync with the registry.
// Registry events mark the config dirty; a render happens at most once per
// interval and always reflects a complete snapshot.
type Renderer struct {
	store         *registry.Store
	path          string
	reloadCommand string
	socketPath    string
	interval      time.Duration
	dryRun        bool
	lastSum       [sha256.Size]byte
	rendered      bool
}

func NewRenderer(store *registry.Store, cfg model.ProxyConfig, interval time.Duration) *Renderer {
	return &Renderer{
		store:         store,
		path:          cfg.ConfigPath,
		reloadCommand: cfg.ReloadCommand,
		socketPath:    cfg.AdminSocket,
		interval:      interval,
		dryRun:        cfg.DryRun,
	}
}

// Run blocks until the context is done.
func (r *Renderer) Run(ctx context.Context) error {
	events, cancel := r.store.Watch(64)
	defer cancel()

	// start from the current registry content
	if err := r.RenderOnce(ctx); err != nil {
		logrus.Errorf("Initial proxy render failed: %v", err)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	dirty := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			logrus.Debugf("Registry event %d (%s), proxy config dirty", event.Index, event.Kind)
			dirty = true
		case <-ticker.C:
			if !dirty {
				continue
			}
			if err := r.RenderOnce(ctx); err != nil {
				// dirty stays set, the next tick retries
				logrus.Errorf("Proxy render failed: %v", err)
				continue
			}
			dirty = false
		}
	}
}

// RenderOnce renders a registry snapshot and, when the content changed
// since the last successful round, writes the file and reloads the proxy.
func (r *Renderer) RenderOnce(ctx context.Context) error {
	backends := BuildModel(r.store)
	content, err := RenderConfig(ConfigData{Socket: r.socketPath, Backends: backends})
	if err != nil {
		return errors.Wrap(err, constants.RenderConfigError+"failed to execute template")
	}

	sum := sha256.Sum256(content)
	if r.rendered && sum == r.lastSum {
		logrus.Debugf("Proxy config unchanged, skipping write")
		return nil
	}

	if r.dryRun {
		logrus.Infof("Dry run, rendered proxy config:\n%s", content)
		r.lastSum = sum
		r.rendered = true
		return nil
	}

	if err := utils.AtomicWriteFile(r.path, content, 0644); err != nil {
		return errors.Wrap(err, constants.RenderConfigError+"failed to write config file")
	}
	logrus.Infof("Wrote proxy config with %d backends to %s", len(backends), r.path)

	// the hash only moves forward after a successful reload, so a failed
	// reload is retried even though the file is already current
	if err := r.reload(ctx); err != nil {
		return err
	}
	r.lastSum = sum
	r.rendered = true
	return nil
}

func (r *Renderer) reload(ctx context.Context) error {
	if r.reloadCommand == "" {
		return nil
	}
	cmdCtx, cancel := context.WithTimeout(ctx, reloadTimeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, "sh", "-c", r.reloadCommand)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, constants.ReloadProxyError+"command failed: %s", strings.TrimSpace(string(output)))
	}
	if out := strings.TrimSpace(string(output)); out != "" {
		logrus.Infof("Reloaded proxy: %s", out)
	} else {
		logrus.Info("Reloaded proxy")
	}
	return nil
}
