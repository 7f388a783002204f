package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/craft/internal/mapping"
	"github.com/mvp-joe/craft/internal/model"
	"github.com/mvp-joe/craft/internal/pipeline"
	"github.com/mvp-joe/craft/internal/similarity"
)

var (
	scoreSourceClass string
	scoreTargetClass string
	scoreJSON        bool
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score <source-spec> <target-spec>",
	Short: "Explain the similarity between two API specs",
	Long: `Score prints the name, tag and method components behind the similarity of
two API descriptions and the mapping category the total falls into.

When a file declares several APIs the first one is used unless a class is
named with --source-class or --target-class.

Examples:
  craft score specs/android/Button.json specs/harmony/Button.json
  craft score android.yaml harmony.yaml --source-class android.widget.Toast --json
`,
	Args: cobra.ExactArgs(2),
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.Flags().StringVar(&scoreSourceClass, "source-class", "", "Source class (simple or qualified name)")
	scoreCmd.Flags().StringVar(&scoreTargetClass, "target-class", "", "Target class (simple or qualified name)")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "Print the result as JSON")
}

func runScore(cmd *cobra.Command, args []string) error {
	return executeScore(args[0], args[1], scoreSourceClass, scoreTargetClass, scoreJSON, cmd.OutOrStdout())
}

// scoreResult is the JSON form of a score.
type scoreResult struct {
	Source    string               `json:"source"`
	Target    string               `json:"target"`
	Breakdown similarity.Breakdown `json:"breakdown"`
	Category  model.MappingType    `json:"category"`
	Accepted  bool                 `json:"accepted"`
}

func executeScore(sourcePath, targetPath, sourceClass, targetClass string, asJSON bool, out io.Writer) error {
	source, err := pickSpec(sourcePath, sourceClass)
	if err != nil {
		return err
	}
	target, err := pickSpec(targetPath, targetClass)
	if err != nil {
		return err
	}

	bd := similarity.Explain(source, target)
	res := scoreResult{
		Source:    source.FullQualifiedName,
		Target:    target.FullQualifiedName,
		Breakdown: bd,
		Category:  mapping.Classify(bd.Total),
		Accepted:  bd.Total >= mapping.DefaultMinConfidence,
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintf(out, "%s -> %s\n", res.Source, res.Target)
	fmt.Fprintf(out, "  name:     %.3f (x%.1f)\n", bd.Name, similarity.NameWeight)
	fmt.Fprintf(out, "  tags:     %.3f (x%.1f)\n", bd.Tags, similarity.TagWeight)
	fmt.Fprintf(out, "  methods:  %.3f (x%.1f)\n", bd.Methods, similarity.MethodWeight)
	fmt.Fprintf(out, "  total:    %.3f\n", bd.Total)
	fmt.Fprintf(out, "  category: %s\n", res.Category)
	if !res.Accepted {
		fmt.Fprintf(out, "  below the default threshold of %.2f; no rule would be synthesized\n", mapping.DefaultMinConfidence)
	}
	return nil
}

// pickSpec loads path and selects the named class, or the first one.
func pickSpec(path, class string) (*model.APISpec, error) {
	specs, err := pipeline.LoadSpecFile(path)
	if err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("%s declares no APIs", path)
	}
	if class == "" {
		return specs[0], nil
	}
	for _, s := range specs {
		if s.FullQualifiedName == class || s.ClassName == class {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%s does not declare %s", path, class)
}
