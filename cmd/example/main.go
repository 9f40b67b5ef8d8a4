// Command example is a minimal illustrative harness for the parserator
// library: it wires a Facade with the default lean-agent profile and runs
// one parse against a small hardcoded input, printing the resulting
// ParseResponse. It is not a CLI surface or API server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Domusgpt/Parserator-8b-alpha-sub000/core"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/parserator"
)

func main() {
	apiKey := os.Getenv("PARSERATOR_API_KEY")
	if apiKey == "" {
		apiKey = "local-example-key"
	}

	facade, err := parserator.New(apiKey, "lean-agent", core.WithLogger(core.NewDefaultLogger()))
	if err != nil {
		fmt.Fprintln(os.Stderr, "construct facade:", err)
		os.Exit(1)
	}

	req := core.ParseRequest{
		InputData: "Contact: Jane Doe\nPhone: +1 555 123 4567\nEmail: j@d.co",
		OutputSchema: core.OutputSchema{
			"contact_name": "name",
			"phone":        "phone",
			"email":        "email",
		},
		SchemaOrder: []string{"contact_name", "phone", "email"},
	}

	resp := facade.Parse(context.Background(), req)

	encoded, _ := json.MarshalIndent(resp, "", "  ")
	fmt.Println(string(encoded))
}
