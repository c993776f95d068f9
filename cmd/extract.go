package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/BitCodeHub/analytics-storyteller/internal/parser"
	"github.com/BitCodeHub/analytics-storyteller/internal/utils"
)

type extractOutput struct {
	Text     string `json:"text"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Type     string `json:"type"`
}

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract plain text from a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat file: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", path)
		}
		d, err := parser.ExtractFile(path)
		if err != nil {
			return err
		}
		b, err := utils.PrettyJSON(extractOutput{
			Text:     d.Content,
			Filename: filepath.Base(path),
			Size:     info.Size(),
			Type:     d.MimeLabel,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
