// Package provision downloads the medicine dataset from Google Drive at
// startup. The dataset is a JSON array of records exported from the
// official drug registry.
package provision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"

	"golang.org/x/oauth2/google"

	"github.com/Chenche0119/DrugUse-LineBot/internal/store"
)

const (
	driveReadonlyScope = "https://www.googleapis.com/auth/drive.readonly"
	driveFilesURL      = "https://www.googleapis.com/drive/v3/files"
)

// ErrNotConfigured is returned when the Drive credentials pair is absent.
// Callers may treat this as a skip rather than a failure.
var ErrNotConfigured = errors.New("drive provisioning not configured")

// EnsureMedicineData downloads the dataset file and bulk-imports it into
// the store. It runs once at startup; the store is read-only afterwards.
func EnsureMedicineData(ctx context.Context, st *store.MedicineStore, credentialsJSON, fileID string) error {
	if credentialsJSON == "" || fileID == "" {
		return ErrNotConfigured
	}

	conf, err := google.JWTConfigFromJSON([]byte(credentialsJSON), driveReadonlyScope)
	if err != nil {
		return fmt.Errorf("parsing service account credentials: %w", err)
	}

	records, err := downloadRecords(ctx, conf.Client(ctx), fileID)
	if err != nil {
		return err
	}

	if err := st.Import(records); err != nil {
		return fmt.Errorf("importing records: %w", err)
	}

	log.Printf("provision: imported %d medicine records from drive", len(records))
	return nil
}

func downloadRecords(ctx context.Context, client *http.Client, fileID string) ([]store.Medicine, error) {
	u := fmt.Sprintf("%s/%s?alt=media", driveFilesURL, url.PathEscape(fileID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("drive status %d: %s", resp.StatusCode, body)
	}

	var records []store.Medicine
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding dataset: %w", err)
	}
	return records, nil
}
