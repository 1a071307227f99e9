// Package upload pushes session logs to the GridHive artifact cache so that
// failure reports can reference a retrievable copy of the full log.
//
// The upload is strictly best-effort from the caller's point of view: it is
// attempted only once a proxy credential is known, and a failed upload must
// degrade to telling the user how to attach the log manually. This package
// only reports success or failure; swallowing the failure is the caller's
// responsibility so the original error being reported is never masked.
package upload

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/gridhive-dev/gridctl/internal/logging"
)

// uploadTimeout bounds the artifact-cache call so a slow cache cannot stall
// process exit indefinitely.
const uploadTimeout = 60 * time.Second

// response is the artifact cache's answer to a successful upload.
type response struct {
	URL string `json:"url"`
}

// Log uploads the session log at logFile to the artifact cache of the given
// instance, authenticated with the proxy credential, and returns the
// retrieval URL. The remote object name is derived from a fresh UUID so
// repeated uploads from the same user never collide.
func Log(ctx context.Context, sess *logging.Session, proxyFile, logFile, instance string) (string, error) {
	return put(ctx, sess, fmt.Sprintf("https://%s", instance), proxyFile, logFile)
}

// put performs the upload against a fully formed base URL. Split from Log so
// tests can point it at an httptest server.
func put(ctx context.Context, sess *logging.Session, baseURL, proxyFile, logFile string) (string, error) {
	if logFile == "" {
		return "", fmt.Errorf("no session log file to upload")
	}
	if _, err := os.Stat(logFile); err != nil {
		return "", fmt.Errorf("session log not readable: %w", err)
	}

	objectName := fmt.Sprintf("gridctl-%s.log", uuid.New().String())
	sess.Debug("uploading session log %s as %s", logFile, objectName)

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(uploadTimeout)

	if proxyFile != "" {
		cert, err := tls.LoadX509KeyPair(proxyFile, proxyFile)
		if err != nil {
			return "", fmt.Errorf("failed to load proxy credential: %w", err)
		}
		httpClient.SetCertificates(cert)
	}

	var res response
	resp, err := httpClient.R().
		SetContext(ctx).
		SetFile("logfile", logFile).
		SetMultipartFormData(map[string]string{"name": objectName}).
		SetResult(&res).
		Put("/artifact-cache/upload")

	if err != nil {
		return "", fmt.Errorf("artifact cache unreachable: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("artifact cache rejected upload with status %d: %s",
			resp.StatusCode(), resp.String())
	}
	if res.URL == "" {
		return "", fmt.Errorf("artifact cache returned no retrieval URL")
	}

	sess.Debug("session log uploaded to %s", res.URL)
	return res.URL, nil
}
