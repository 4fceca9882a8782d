// Command scopeflow is the command line surface of the translation core:
// it turns saved workspaces into Python automation scripts, moves sequences
// between the graph and flat step representations, inspects SCPI commands
// for editable parameters, and manages the workspace store.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scopeflow/scopeflow/core/device"
	"github.com/scopeflow/scopeflow/core/scpi"
	"github.com/scopeflow/scopeflow/core/step"
	"github.com/scopeflow/scopeflow/runtime/codegen"
	"github.com/scopeflow/scopeflow/runtime/convert"
	"github.com/scopeflow/scopeflow/runtime/workspace"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "scopeflow",
		Short:         "Translate instrument automation sequences between graph, steps, and Python",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newGenerateCmd(),
		newExportStepsCmd(),
		newImportStepsCmd(),
		newParamsCmd(),
		newWorkspaceCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadRegistry reads the device registry when one is given; a missing flag
// means generation runs with node-level connection parameters only.
func loadRegistry(path string) (*device.Registry, error) {
	if path == "" {
		return nil, nil
	}
	return device.LoadRegistry(path)
}

func readDocument(path string) (*workspace.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workspace %s: %w", path, err)
	}
	doc, warnings, err := workspace.DecodeDocument(data)
	if err != nil {
		return nil, err
	}
	printWarnings(warnings)
	return doc, nil
}

func printWarnings(warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
}

func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func newGenerateCmd() *cobra.Command {
	var registryPath, outPath string

	cmd := &cobra.Command{
		Use:   "generate <workspace.json>",
		Short: "Generate the Python script for a workspace document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			reg, err := loadRegistry(registryPath)
			if err != nil {
				return err
			}
			script := codegen.Generate(doc.Head, reg)
			return writeOutput(outPath, []byte(script))
		},
	}
	cmd.Flags().StringVarP(&registryPath, "registry", "r", "", "Path to the device registry (YAML)")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func newExportStepsCmd() *cobra.Command {
	var registryPath, outPath string
	var render bool

	cmd := &cobra.Command{
		Use:   "export-steps <workspace.json>",
		Short: "Flatten a workspace document into a step list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			reg, err := loadRegistry(registryPath)
			if err != nil {
				return err
			}
			list := convert.GraphToSteps(doc.Head, reg)
			if render {
				return writeOutput(outPath, []byte(step.Render(list)))
			}
			data, err := step.Encode(list)
			if err != nil {
				return err
			}
			return writeOutput(outPath, append(data, '\n'))
		},
	}
	cmd.Flags().StringVarP(&registryPath, "registry", "r", "", "Path to the device registry (YAML)")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().BoolVar(&render, "render", false, "Print a readable tree instead of JSON")
	return cmd
}

func newImportStepsCmd() *cobra.Command {
	var outPath, name string

	cmd := &cobra.Command{
		Use:   "import-steps <steps.json>",
		Short: "Rebuild a workspace document from a step list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read step list %s: %w", args[0], err)
			}
			list, err := step.Decode(data)
			if err != nil {
				return err
			}
			head, warnings := convert.StepsToGraph(list)
			printWarnings(warnings)

			out, err := workspace.EncodeDocument(&workspace.Document{Name: name, Head: head})
			if err != nil {
				return err
			}
			return writeOutput(outPath, append(out, '\n'))
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVarP(&name, "name", "n", "imported", "Name of the rebuilt workspace")
	return cmd
}

func newParamsCmd() *cobra.Command {
	var libraryPath string

	cmd := &cobra.Command{
		Use:   "params <scpi-command>",
		Short: "Show the editable parameters of a SCPI command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := args[0]

			parsed := scpi.Parse(raw)
			var params []scpi.EditableParameter
			if libraryPath != "" {
				lib, err := scpi.LoadLibrary(libraryPath)
				if err != nil {
					return err
				}
				parsed, params = scpi.DetectWithLibrary(raw, lib)
			} else {
				params = scpi.Detect(parsed, nil)
			}
			fmt.Printf("command: %s\n", parsed.Raw)
			fmt.Printf("header:  %s\n", scpi.NormalizeHeader(parsed.Header))
			if parsed.IsQuery {
				fmt.Println("query:   yes")
			}
			if len(params) == 0 {
				fmt.Println("no editable parameters detected")
				return nil
			}
			for _, p := range params {
				line := fmt.Sprintf("  [%d:%d] %s (%s)", p.StartIndex, p.EndIndex, p.CurrentValue, p.Type)
				if p.Mnemonic != "" {
					line += " mnemonic=" + string(p.Mnemonic)
				}
				if len(p.ValidOptions) > 0 {
					line += " options=" + strings.Join(p.ValidOptions, "|")
				}
				fmt.Println(line)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&libraryPath, "library", "l", "", "Path to the command library (JSON)")
	return cmd
}

func newWorkspaceCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Manage the workspace store",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "scopeflow.db", "Path to the workspace database")

	openStore := func() (*workspace.Store, error) {
		return workspace.Open(dbPath)
	}

	saveCmd := &cobra.Command{
		Use:   "save <name> <workspace.json>",
		Short: "Save a workspace document under a name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[1])
			if err != nil {
				return err
			}
			doc.Name = args[0]

			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			return store.Save(doc)
		},
	}

	loadCmd := &cobra.Command{
		Use:   "load <name>",
		Short: "Print a saved workspace document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			doc, warnings, err := store.Load(args[0])
			if err != nil {
				return err
			}
			printWarnings(warnings)
			data, err := workspace.EncodeDocument(doc)
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved workspaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("no saved workspaces")
				return nil
			}
			for _, e := range entries {
				fmt.Printf("%-30s %s\n", e.Name, e.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			return store.Delete(args[0])
		},
	}

	cmd.AddCommand(saveCmd, loadCmd, listCmd, deleteCmd)
	return cmd
}
