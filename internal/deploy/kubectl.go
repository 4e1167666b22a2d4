// Package deploy restarts the Kubernetes consumers of a published artifact
// and reads their logs back, all through the kubectl binary so the tool works
// with whatever cluster the operator's kubeconfig points at.
package deploy

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// CommandRunner executes an external command and returns its combined output.
// It exists so tests can run without a cluster.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// execRunner runs commands for real.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return string(out), fmt.Errorf("%w: %s", err, msg)
		}
		return string(out), err
	}
	return string(out), nil
}

// Controller drives kubectl rollout commands. It satisfies the pipeline's
// DeploymentController interface.
type Controller struct {
	runner CommandRunner
	bin    string
}

// NewController returns a Controller invoking the given kubectl binary.
func NewController(bin string) *Controller {
	return &Controller{runner: execRunner{}, bin: bin}
}

// Restart triggers a rolling restart of the deployment.
func (c *Controller) Restart(ctx context.Context, namespace, deployment string) error {
	_, err := c.runner.Run(ctx, c.bin, "rollout", "restart", "deployment/"+deployment, "-n", namespace)
	if err != nil {
		return fmt.Errorf("kubectl rollout restart %s: %w", deployment, err)
	}
	return nil
}

// AwaitReady blocks until the deployment reports a completed rollout or the
// timeout elapses.
func (c *Controller) AwaitReady(ctx context.Context, namespace, deployment string, timeout time.Duration) error {
	_, err := c.runner.Run(ctx, c.bin,
		"rollout", "status", "deployment/"+deployment,
		"-n", namespace,
		"--timeout="+timeout.String(),
	)
	if err != nil {
		return fmt.Errorf("kubectl rollout status %s: %w", deployment, err)
	}
	return nil
}

// RecentLogs returns the last tail lines logged by the deployment's pods,
// selected by the app label.
func (c *Controller) RecentLogs(ctx context.Context, namespace, deployment string, tail int) (string, error) {
	out, err := c.runner.Run(ctx, c.bin,
		"logs",
		"-n", namespace,
		"-l", "app="+deployment,
		"--tail="+strconv.Itoa(tail),
	)
	if err != nil {
		return "", fmt.Errorf("kubectl logs %s: %w", deployment, err)
	}
	return out, nil
}
