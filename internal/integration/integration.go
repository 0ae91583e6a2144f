// Package integration provides embedded shell integration snippets.
package integration

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"
)

// ZshFzf contains the zsh function that picks a large directory with fzf.
//
//go:embed zsh-fzf.sh
var ZshFzf string

// Render renders the integration script for the local zsh and the running
// topdirs binary.
func Render() (string, error) {
	zsh, err := exec.LookPath("zsh")
	if err != nil {
		return "", fmt.Errorf("locating zsh: %w", err)
	}

	self, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating topdirs binary: %w", err)
	}

	return render(filepath.ToSlash(zsh), filepath.ToSlash(self))
}

func render(zsh, topdirs string) (string, error) {
	tmpl, err := template.New("zsh-fzf").Parse(ZshFzf)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]any{
		"ZSH":     zsh,
		"TOPDIRS": topdirs,
	}); err != nil {
		return "", err
	}

	return buf.String(), nil
}
