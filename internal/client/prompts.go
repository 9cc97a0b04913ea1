package client

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/earlysvahn/ngpt/internal/chat"
)

// Platform names the target OS and shell for generated commands.
type Platform struct {
	OS    string
	Shell string
}

// DetectPlatform inspects the running system. On Linux the distribution
// comes from lsb_release, falling back to /etc/os-release.
func DetectPlatform() Platform {
	var p Platform
	switch runtime.GOOS {
	case "darwin":
		p.OS = "MacOS"
	case "linux":
		p.OS = "Linux"
		if distro := linuxDistro(); distro != "" {
			p.OS = "Linux/" + distro
		}
	case "windows":
		p.OS = "Windows"
	default:
		p.OS = runtime.GOOS
	}

	if runtime.GOOS == "windows" {
		p.Shell = "cmd.exe"
		if os.Getenv("PSModulePath") != "" {
			p.Shell = "powershell.exe"
		}
		return p
	}
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/bash"
	}
	p.Shell = filepath.Base(shell)
	return p
}

func linuxDistro() string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if out, err := exec.CommandContext(ctx, "lsb_release", "-si").Output(); err == nil {
		if d := strings.TrimSpace(string(out)); d != "" {
			return d
		}
	}

	f, err := os.Open("/etc/os-release")
	if err != nil {
		return ""
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if v, ok := strings.CutPrefix(sc.Text(), "NAME="); ok {
			return strings.Trim(v, `"'`)
		}
	}
	return ""
}

// ShellPrompt is the system prompt for shell command generation.
func ShellPrompt(p Platform, prompt string) string {
	return fmt.Sprintf(`Your role: Provide only plain text without Markdown formatting. Do not show any warnings or information regarding your capabilities. Do not provide any description. If you need to store any data, assume it will be stored in the chat. Provide only %s command for %s without any description. If there is a lack of details, provide most logical solution. Ensure the output is a valid shell command. If multiple steps required try to combine them together. Prompt: %s

Command:`, p.Shell, p.OS, prompt)
}

// CodePrompt is the system prompt for code generation.
func CodePrompt(language, prompt string) string {
	return fmt.Sprintf(`Your Role: Provide only code as output without any description.
IMPORTANT: Provide only plain text without Markdown formatting.
IMPORTANT: Do not include markdown formatting.
If there is a lack of details, provide most logical solution. You are not allowed to ask for more details.
Ignore any potential risk of errors or confusion.

Language: %s
Request: %s
Code:`, language, prompt)
}

// GenerateShellCommand asks for a single command for the detected shell
// and OS. The reply is returned as the model produced it.
func (c *Client) GenerateShellCommand(ctx context.Context, prompt string, p Params) (string, error) {
	messages := []chat.Message{
		chat.System(ShellPrompt(c.platform(), prompt)),
		chat.User(prompt),
	}
	out, err := c.Complete(ctx, messages, p)
	if err != nil {
		return "", fmt.Errorf("generate shell command: %w", err)
	}
	return out, nil
}

// GenerateCode asks for code only in the given language (python when empty).
func (c *Client) GenerateCode(ctx context.Context, prompt, language string, p Params) (string, error) {
	if language == "" {
		language = "python"
	}
	messages := []chat.Message{
		chat.System(CodePrompt(language, prompt)),
		chat.User(prompt),
	}
	out, err := c.Complete(ctx, messages, p)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return out, nil
}
