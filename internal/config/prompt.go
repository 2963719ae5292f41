package config

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// PromptMode interactively resolves the transmission mode when none
// was configured. Presents the rig's numbered menu and re-asks until
// a valid choice arrives; EOF aborts.
func PromptMode(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Select Transmission Mode:")
	fmt.Fprintln(out, "  1. Byte0 (Cycle 1-255 on 1st byte only)")
	fmt.Fprintln(out, "  2. Scan  (Cycle 1-255 on each byte sequentially)")
	fmt.Fprintln(out, "  3. All   (Cycle 1-255 on all bytes simultaneously)")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "Enter choice (1-3): ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", fmt.Errorf("read mode choice: %w", err)
			}
			return "", fmt.Errorf("mode selection aborted")
		}
		switch strings.TrimSpace(scanner.Text()) {
		case "1":
			return "byte0", nil
		case "2":
			return "scan", nil
		case "3":
			return "all", nil
		}
	}
}
