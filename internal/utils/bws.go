package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/bitwarden/sdk-go"
	"github.com/sirupsen/logrus"
)

const (
	bwsLoginAttempts = 5
	bwsFirstBackoff  = 500 * time.Millisecond
)

// FetchBWSProjectSecrets logs in to Bitwarden Secrets Manager, returns every
// secret of the named project keyed by secret name, and closes the session.
func FetchBWSProjectSecrets(accessToken, orgID, project string) (map[string]string, error) {
	switch {
	case strings.TrimSpace(accessToken) == "":
		return nil, errors.New("bitwarden access token is empty")
	case strings.TrimSpace(orgID) == "":
		return nil, errors.New("BWS_ORG_ID env var is missing or empty")
	case strings.TrimSpace(project) == "":
		return nil, errors.New("bitwarden project name is empty")
	}

	bw, err := sdk.NewBitwardenClient(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("initialising Bitwarden SDK client: %w", err)
	}
	defer bw.Close()

	if err := bwsLogin(bw, accessToken); err != nil {
		return nil, err
	}

	projects, err := bw.Projects().List(orgID)
	if err != nil {
		return nil, fmt.Errorf("listing Bitwarden projects: %w", err)
	}
	projectID := ""
	for _, p := range projects.Data {
		if strings.EqualFold(p.Name, project) {
			projectID = p.ID
			break
		}
	}
	if projectID == "" {
		return nil, fmt.Errorf("bitwarden project %q not found", project)
	}

	synced, err := bw.Secrets().Sync(orgID, nil)
	if err != nil {
		return nil, fmt.Errorf("syncing Bitwarden secrets: %w", err)
	}
	out := map[string]string{}
	for _, sec := range synced.Secrets {
		if sec.ProjectID != nil && *sec.ProjectID == projectID {
			out[sec.Key] = sec.Value
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("bitwarden project %q has no secrets", project)
	}
	Logger.WithFields(logrus.Fields{"project": project, "count": len(out)}).Info("Loaded secrets from Bitwarden")
	return out, nil
}

// bwsLogin retries only rate-limit failures; sdk-go reports them as text.
func bwsLogin(bw sdk.BitwardenClientInterface, token string) error {
	wait := bwsFirstBackoff
	var err error
	for attempt := 1; attempt <= bwsLoginAttempts; attempt++ {
		if err = bw.AccessTokenLogin(token, nil); err == nil {
			return nil
		}
		msg := err.Error()
		if !strings.Contains(msg, "429") && !strings.Contains(msg, "Too Many Requests") {
			return fmt.Errorf("bitwarden login failed: %w", err)
		}
		Logger.WithField("attempt", attempt).Warn("Bitwarden rate limited login, backing off")
		time.Sleep(wait)
		wait *= 2
	}
	return fmt.Errorf("bitwarden login failed after %d attempts: %w", bwsLoginAttempts, err)
}
