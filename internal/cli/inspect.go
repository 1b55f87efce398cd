package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tactilab/dotplate/pkg/plate"
	"github.com/tactilab/dotplate/pkg/stl"
)

// inspectCommand creates the inspect command for examining artifacts.
func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <artifact>",
		Short: "Summarize a generated artifact",
		Long: `Inspect reads a generated .stl or .json artifact and prints a
summary: triangle count, bounds and volume for meshes, primitive counts
and surface parameters for spec documents.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args[0])
		},
	}
}

func runInspect(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".stl":
		return inspectSTL(path)
	case ".json":
		return inspectSpec(path)
	default:
		return fmt.Errorf("unsupported artifact %q (expected .stl or .json)", path)
	}
}

func inspectSTL(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	m, err := stl.Decode(f)
	if err != nil {
		return err
	}

	min, max := m.Bounds()
	printInfo("%s", path)
	printKeyValue("triangles", fmt.Sprintf("%d", len(m.Triangles)))
	printKeyValue("volume", fmt.Sprintf("%.2f mm³", m.Volume()))
	printKeyValue("bounds", fmt.Sprintf("%.2f × %.2f × %.2f mm",
		max.X-min.X, max.Y-min.Y, max.Z-min.Z))
	if m.IsManifold() {
		printKeyValue("manifold", "yes")
	} else {
		printKeyValue("manifold", "no")
	}
	return nil
}

func inspectSpec(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	doc, err := plate.UnmarshalDocument(data)
	if err != nil {
		return err
	}

	printInfo("%s", path)
	printKeyValue("plate type", doc.PlateType)
	printKeyValue("surface", doc.ShapeType)
	printKeyValue("dots", fmt.Sprintf("%d", len(doc.Dots)))
	printKeyValue("markers", fmt.Sprintf("%d", len(doc.Markers)))
	return nil
}
