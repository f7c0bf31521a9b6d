// Command schemagen emits the JSON Schema of the chat exchange DTOs so
// clients in other languages can stay in sync with the Go types.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/apigent/apigent/loop"
)

type chatDTOs struct {
	Request loop.Request `json:"request"`
	Result  loop.Result  `json:"result"`
}

func main() {
	r := new(jsonschema.Reflector)
	r.ExpandedStruct = true
	schema := r.Reflect(&chatDTOs{})

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "schemagen:", err)
		os.Exit(1)
	}

	outputDir := "schemas"
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, "schemagen:", err)
		os.Exit(1)
	}
	outputFile := filepath.Join(outputDir, "chat_schema.json")
	if err := os.WriteFile(outputFile, data, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, "schemagen:", err)
		os.Exit(1)
	}
	fmt.Println("schema written to", outputFile)
}
