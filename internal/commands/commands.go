// Package commands provides the sub-command plug-ins installable in the
// gridctl command registry.
//
// Each command is a thin front over the task-service client: it parses its
// own arguments, resolves the project directory (which fixes the session log
// location), establishes the user's proxy credential, and performs one
// operation. The heavy lifting of classification, logging, and upload lives
// in the dispatch and failure packages; commands only return typed errors.
//
// COMMAND SET:
//   - submit (sub): submit a task described by a YAML task file
//   - status (st): report the service-side state of a submitted task
//   - kill (rm): request termination of a submitted task
//   - uploadlog (upl): push the session log to the artifact cache on demand
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gridhive-dev/gridctl/internal/client"
	"github.com/gridhive-dev/gridctl/internal/command"
	"github.com/gridhive-dev/gridctl/internal/config"
	"github.com/gridhive-dev/gridctl/internal/logging"
	"github.com/gridhive-dev/gridctl/internal/registry"
)

// Exit codes declared by the commands for expected local failures. Distinct
// from the sentinel codes so wrapping automation can tell them apart.
const (
	exitBadArgs     = 2 // malformed command arguments
	exitNoProxy     = 3 // no usable proxy credential found
	exitBadTaskFile = 4 // unreadable or invalid task description
	exitBadProject  = 5 // missing or unusable project directory
	exitUploadFail  = 6 // on-demand session log upload failed
)

// taskRefFile stores the service-side task reference inside the project
// directory so later commands can find the task without the task file.
const taskRefFile = ".taskref.yaml"

// Discover enumerates the installable sub-commands once at process start.
func Discover() []*registry.Descriptor {
	return []*registry.Descriptor{
		{Name: "submit", Aliases: []string{"sub"}, Summary: "Submit a task described by a task file", New: newSubmit},
		{Name: "status", Aliases: []string{"st"}, Summary: "Show the state of a submitted task", New: newStatus},
		{Name: "kill", Aliases: []string{"rm"}, Summary: "Kill a submitted task", New: newKill},
		{Name: "uploadlog", Aliases: []string{"upl"}, Summary: "Upload the session log to the artifact cache", New: newUploadLog},
	}
}

// base carries the pieces every sub-command shares: the session logger, the
// resolved configuration, and the proxy/log-path state the dispatcher reads
// back after execution.
type base struct {
	sess    *logging.Session
	cfg     *config.Config
	proxy   string
	logPath string
}

// Terminate is the last-chance cleanup hook, called unconditionally with the
// final exit code once it has been computed.
func (b *base) Terminate(exitCode int) {
	b.sess.Debug("command finished with exit code %d", exitCode)
}

// ProxyFile returns the proxy credential path once authentication
// established one, or "" while it is unknown.
func (b *base) ProxyFile() string {
	return b.proxy
}

// LogPath returns the session log destination once the project directory is
// known, or "" for the dispatcher's default.
func (b *base) LogPath() string {
	return b.logPath
}

// establishProxy locates the user's proxy credential: the configured path,
// then X509_USER_PROXY, then the conventional per-user location. The first
// existing regular file wins.
func (b *base) establishProxy() error {
	candidates := []string{
		b.cfg.Proxy,
		os.Getenv("X509_USER_PROXY"),
		fmt.Sprintf("/tmp/x509up_u%d", os.Getuid()),
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		b.proxy = candidate
		b.sess.Debug("using proxy credential %s", candidate)
		return nil
	}

	return command.NewClientError(exitNoProxy,
		"no proxy credential found; set GRIDCTL_PROXY or X509_USER_PROXY to an existing proxy file")
}

// writeTaskRef records the service-side task reference in the project directory.
func writeTaskRef(dir string, ref *client.TaskRef) error {
	data, err := yaml.Marshal(ref)
	if err != nil {
		return fmt.Errorf("failed to encode task reference: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, taskRefFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write task reference: %w", err)
	}
	return nil
}

// readTaskRef loads the task reference from a project directory.
func readTaskRef(dir string) (*client.TaskRef, error) {
	data, err := os.ReadFile(filepath.Join(dir, taskRefFile))
	if err != nil {
		return nil, command.NewClientError(exitBadProject,
			"%s does not look like a task project directory (missing %s)", dir, taskRefFile)
	}

	var ref client.TaskRef
	if err := yaml.Unmarshal(data, &ref); err != nil {
		return nil, command.NewClientError(exitBadProject,
			"corrupt task reference in %s: %v", dir, err)
	}
	if ref.Name == "" {
		return nil, command.NewClientError(exitBadProject,
			"task reference in %s carries no task name", dir)
	}

	return &ref, nil
}
