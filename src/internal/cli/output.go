package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// render 依 --format 輸出：json 時編碼 data，text 時呼叫 text
func render(cmd *cobra.Command, opts *RootOptions, data interface{}, text func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	if opts.Format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		return nil
	}
	text(w)
	return nil
}
