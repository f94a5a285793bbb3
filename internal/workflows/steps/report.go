package steps

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/automa-saga/automa"
	"gopkg.in/yaml.v3"
)

// PrintWorkflowReport prints the workflow execution report in YAML format
// and, if path is non-empty, also saves it there.
var PrintWorkflowReport = func(report *automa.Report, path string) {
	b, err := yaml.Marshal(report)
	if err != nil {
		fmt.Printf("Failed to marshal report: %v\n", err)
		return
	}
	fmt.Printf("Workflow Execution Report:\n%s\n", b)

	if path == "" {
		return
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		fmt.Printf("Failed to create report directory: %v\n", err)
		return
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		fmt.Printf("Failed to save report: %v\n", err)
	}
}
