package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"CredibilityScanner/internal/domain"
	"CredibilityScanner/internal/usecase"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [text]",
	Short: "Analyze text given as an argument, a file, or stdin",
	Long: `Analyze runs one credibility analysis and prints the result as JSON.
The text is taken from the arguments, from --file, or from stdin when --file
is "-".`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Bool("deep", false, "run the deep AI track")
	analyzeCmd.Flags().String("url", "", "source URL to verify (default: first URL in the text)")
	analyzeCmd.Flags().String("source-type", "text", "input kind: text, image or video")
	analyzeCmd.Flags().StringP("file", "f", "", `read text from file ("-" for stdin)`)
	analyzeCmd.Flags().String("user", "", "user id; when set the result is stored in history")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	rawType, _ := cmd.Flags().GetString("source-type")
	sourceType, err := domain.ParseSourceType(rawType)
	if err != nil {
		return err
	}
	deep, _ := cmd.Flags().GetBool("deep")
	url, _ := cmd.Flags().GetString("url")
	user, _ := cmd.Flags().GetString("user")

	application, _, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer application.Close()

	result, err := application.Analyze(cmd.Context(), usecase.AnalysisRequest{
		Text:       text,
		SourceType: sourceType,
		SourceURL:  url,
		DeepScan:   deep,
		UserID:     user,
	})
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), result)
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	file, _ := cmd.Flags().GetString("file")
	switch {
	case file == "-":
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(raw), nil
	case file != "":
		raw, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", file, err)
		}
		return string(raw), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	default:
		return "", fmt.Errorf("provide text as arguments or with --file")
	}
}
