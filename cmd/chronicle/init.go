package main

import (
	"fmt"
	"os"
	"path/filepath"
)

const starterConfig = `# chronicle configuration
sourceRoot: ./src
extensions: [".h", ".cpp", ".i"]
outputDir: ./chronicle-out

# Supplementary context folded into the overview (text files only).
# metadataDir: ./metadata

modelEndpoint: http://localhost:8080/v1/messages
model: claude-3-5-sonnet-20240620

# Retrieval augmentation for per-file notes. Empty disables it.
# retrievalEndpoint: http://localhost:8081/query

concurrency: 4
snippetCount: 3
maxClusterSize: 6
sectionWordBudget: 1500
retryAttempts: 3
retryBackoffBase: 2s
`

// writeStarterConfig creates chronicle.yml in dir, refusing to overwrite an
// existing one.
func writeStarterConfig(dir string) error {
	path := filepath.Join(dir, "chronicle.yml")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
		return err
	}
	fmt.Println("wrote", path)
	return nil
}
