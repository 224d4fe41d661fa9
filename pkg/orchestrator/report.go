package orchestrator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// writeReport persists r atomically: write to a temp file in dir, fsync,
// then rename over the final path. A reader never observes a partially
// written report, satisfying the data model's "written atomically
// (tmp+rename)" requirement for the Cycle Report.
func writeReport(dir string, r CycleReport) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("orchestrator: create report dir: %w", err)
	}

	final := filepath.Join(dir, r.CycleID+".json")
	tmp, err := os.CreateTemp(dir, ".cycle-*.json.tmp")
	if err != nil {
		return fmt.Errorf("orchestrator: create temp report: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once the rename below succeeds

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		tmp.Close()
		return fmt.Errorf("orchestrator: encode report: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("orchestrator: sync report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("orchestrator: close report: %w", err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		return fmt.Errorf("orchestrator: rename report: %w", err)
	}
	return nil
}
